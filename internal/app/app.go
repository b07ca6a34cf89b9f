// Package app wires storage, domain services and their configuration into one
// container shared by the server and the ingest command.
package app

import (
	"context"
	"fmt"

	"palletledger/internal/core/tx"
	"palletledger/internal/domain/audit"
	"palletledger/internal/domain/ingest"
	"palletledger/internal/domain/ledger"
	"palletledger/internal/domain/location"
	"palletledger/internal/infrastructure/storage/memory"
	"palletledger/internal/infrastructure/storage/postgres"
	"palletledger/internal/infrastructure/storage/postgres/catalog_repo"
	"palletledger/internal/infrastructure/storage/postgres/register_repo"
	"palletledger/internal/infrastructure/storage/postgres/report_repo"
	"palletledger/internal/infrastructure/tabular"
	"palletledger/pkg/config"
	"palletledger/pkg/logger"
)

// App holds the wired services.
type App struct {
	Registry *location.Registry
	Engine   *ledger.Engine
	Audit    *audit.Service
	Pipeline *ingest.Pipeline

	// Pool is nil for the memory driver.
	Pool *postgres.Pool
}

// Close releases storage resources.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// repositories is the storage-specific half of the wiring.
type repositories struct {
	txm       tx.Manager
	locations location.Repository
	balances  ledger.BalanceRepository
	movements ledger.MovementRepository
	summaries ledger.SummaryRepository
	audit     audit.Repository
	reports   ingest.Repository
}

// New opens the configured storage driver and builds the services on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	var repos repositories
	switch cfg.App.Storage {
	case config.DriverMemory:
		logger.Warn(ctx, "using in-memory storage, data is lost on exit")
		repos = memoryRepositories(memory.NewStore())
	default:
		pool, err := openPostgres(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		a.Pool = pool
		repos = postgresRepositories(postgres.NewTxManager(pool).WithStatementTimeout(cfg.DB.StatementTimeout))
	}

	auditSvc, err := audit.NewService(repos.audit)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("audit service: %w", err)
	}

	a.Audit = auditSvc
	a.Engine = ledger.NewEngine(repos.txm, repos.locations, repos.balances, repos.movements, repos.summaries, auditSvc)
	a.Registry = location.NewRegistry(repos.txm, repos.locations, repos.balances, repos.movements, auditSvc)
	a.Pipeline = ingest.NewPipeline(repos.txm, repos.reports, a.Engine, tabular.NewReader(),
		ingest.WithMode(ingest.Mode(cfg.Ingest.Mode)),
		ingest.WithMaxErrors(cfg.Ingest.MaxErrors),
	)
	return a, nil
}

func openPostgres(ctx context.Context, cfg config.DBConfig) (*postgres.Pool, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.ConnectionString())
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.StatementTimeout = cfg.StatementTimeout

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info(ctx, "database schema applied")
	}
	return pool, nil
}

func memoryRepositories(store *memory.Store) repositories {
	return repositories{
		txm:       store.TxManager(),
		locations: store.Locations(),
		balances:  store.Balances(),
		movements: store.Movements(),
		summaries: store.Summary(),
		audit:     store.Audit(),
		reports:   store.Reports(),
	}
}

func postgresRepositories(txm *postgres.TxManager) repositories {
	return repositories{
		txm:       txm,
		locations: catalog_repo.NewLocationRepo(txm),
		balances:  register_repo.NewBalanceRepo(txm),
		movements: register_repo.NewMovementRepo(txm),
		summaries: report_repo.NewSummaryRepo(txm),
		audit:     postgres.NewAuditRepo(txm),
		reports:   report_repo.NewReconciliationRepo(txm),
	}
}
