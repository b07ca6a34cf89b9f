// Package register_repo provides PostgreSQL implementations of the ledger registers:
// balances and movements.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/ledger"
	"palletledger/internal/infrastructure/storage/postgres"
)

const balancesTable = "inventory_balances"

var balanceColumns = postgres.ExtractDBColumns[ledger.Balance]()

var _ ledger.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo implements ledger.BalanceRepository for the default pallet type.
type BalanceRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewBalanceRepo creates a new balance repository.
func NewBalanceRepo(txManager *postgres.TxManager) *BalanceRepo {
	return &BalanceRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *BalanceRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.
		Select(balanceColumns...).
		From(balancesTable).
		Where(squirrel.Eq{"pallet_type": ledger.DefaultPalletType})
}

// Get returns the balance of code.
func (r *BalanceRepo) Get(ctx context.Context, code string) (*ledger.Balance, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"location_code": code}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b ledger.Balance
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("balance", code)
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &b, nil
}

// GetForUpdate locks the balances of codes. Rows are locked in code order so two
// movements over the same pair of locations cannot deadlock.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, codes ...string) (map[string]*ledger.Balance, error) {
	sql, args, err := r.lockQuery(codes).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []ledger.Balance
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("lock balances: %w", err)
	}

	out := make(map[string]*ledger.Balance, len(rows))
	for i := range rows {
		out[rows[i].LocationCode] = &rows[i]
	}
	return out, nil
}

func (r *BalanceRepo) lockQuery(codes []string) squirrel.SelectBuilder {
	return r.baseSelect().
		Where(squirrel.Eq{"location_code": codes}).
		OrderBy("location_code").
		Suffix("FOR UPDATE")
}

// CreateZero inserts a zero balance for code unless one exists.
func (r *BalanceRepo) CreateZero(ctx context.Context, code string) error {
	sql, args, err := r.builder.
		Insert(balancesTable).
		Columns("location_code", "pallet_type", "quantity", "quantity_allocated", "quantity_available").
		Values(code, ledger.DefaultPalletType, 0, 0, 0).
		Suffix("ON CONFLICT (location_code, pallet_type) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("create balance: %w", err)
	}
	return nil
}

// Save writes quantities and last-movement fields of b.
func (r *BalanceRepo) Save(ctx context.Context, b *ledger.Balance) error {
	sql, args, err := r.builder.
		Update(balancesTable).
		Set("quantity", b.Quantity).
		Set("quantity_allocated", b.QuantityAllocated).
		Set("quantity_available", b.QuantityAvailable).
		Set("last_movement_id", b.LastMovementID).
		Set("last_movement_date", b.LastMovementDate).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"location_code": b.LocationCode, "pallet_type": b.PalletType}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("save balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("balance", b.LocationCode)
	}
	return nil
}

// DeleteByLocation drops every balance of code.
func (r *BalanceRepo) DeleteByLocation(ctx context.Context, code string) error {
	sql, args, err := r.builder.
		Delete(balancesTable).
		Where(squirrel.Eq{"location_code": code}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete balances: %w", err)
	}
	return nil
}
