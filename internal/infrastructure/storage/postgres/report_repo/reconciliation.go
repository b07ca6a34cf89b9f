package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/ingest"
	"palletledger/internal/infrastructure/storage/postgres"
)

const (
	reportsTable     = "reconciliation_reports"
	reportLinksTable = "report_movements"
)

var reportColumns = postgres.ExtractDBColumns[ingest.Report]()

// reportLink is one row of report_movements.
type reportLink struct {
	ReportID   int64 `db:"report_id"`
	MovementID int64 `db:"movement_id"`
}

var _ ingest.Repository = (*ReconciliationRepo)(nil)

// ReconciliationRepo implements ingest.Repository.
type ReconciliationRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewReconciliationRepo creates a new reconciliation report repository.
func NewReconciliationRepo(txManager *postgres.TxManager) *ReconciliationRepo {
	return &ReconciliationRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ReconciliationRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(reportColumns...).From(reportsTable)
}

// Claim holds an advisory lock on fileHash for the length of one ingestion run.
func (r *ReconciliationRepo) Claim(ctx context.Context, fileHash string) (func(), error) {
	release, ok, err := r.txManager.TryAdvisoryLock(ctx, "ingest:"+fileHash)
	if err != nil {
		return nil, fmt.Errorf("claim file hash: %w", err)
	}
	if !ok {
		return nil, apperror.NewIngestInProgress(fileHash)
	}
	return release, nil
}

// FindByHash returns the report of fileHash, or nil when none exists.
func (r *ReconciliationRepo) FindByHash(ctx context.Context, fileHash string) (*ingest.Report, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"file_hash": fileHash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rep ingest.Report
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &rep, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find report: %w", err)
	}

	if err := r.loadLinks(ctx, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Get returns a report with its movement ids.
func (r *ReconciliationRepo) Get(ctx context.Context, reportID int64) (*ingest.Report, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"id": reportID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rep ingest.Report
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &rep, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("report", reportID)
		}
		return nil, fmt.Errorf("get report: %w", err)
	}

	if err := r.loadLinks(ctx, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *ReconciliationRepo) loadLinks(ctx context.Context, rep *ingest.Report) error {
	sql, args, err := r.builder.
		Select("movement_id").
		From(reportLinksTable).
		Where(squirrel.Eq{"report_id": rep.ID}).
		OrderBy("movement_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	rep.MovementIDs = make([]int64, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rep.MovementIDs, sql, args...); err != nil {
		return fmt.Errorf("load report links: %w", err)
	}
	return nil
}

// List returns reports newest first. Movement ids are not loaded.
func (r *ReconciliationRepo) List(ctx context.Context, limit int) ([]ingest.Report, error) {
	sql, args, err := r.baseSelect().
		OrderBy("processed_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]ingest.Report, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return items, nil
}

// Create inserts rep and assigns rep.ID.
func (r *ReconciliationRepo) Create(ctx context.Context, rep *ingest.Report) error {
	data := postgres.StructToMap(rep)
	delete(data, "id")

	sql, args, err := r.builder.
		Insert(reportsTable).
		SetMap(data).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&rep.ID); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicateReport(rep.FileHash)
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Finalize writes the outcome of a run.
func (r *ReconciliationRepo) Finalize(ctx context.Context, rep *ingest.Report) error {
	sql, args, err := r.builder.
		Update(reportsTable).
		Set("total_movements", rep.TotalRows).
		Set("successful_movements", rep.SuccessfulRows).
		Set("failed_movements", rep.FailedRows).
		Set("discrepancies_found", rep.DiscrepanciesFound).
		Set("status", rep.Status).
		Set("processing_errors", rep.ProcessingErrors).
		Set("completed_at", rep.CompletedAt).
		Where(squirrel.Eq{"id": rep.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("finalize report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("report", rep.ID)
	}
	return nil
}

// LinkMovement records one report-movement link.
func (r *ReconciliationRepo) LinkMovement(ctx context.Context, reportID, movementID int64) error {
	sql, args, err := r.builder.
		Insert(reportLinksTable).
		Columns("report_id", "movement_id").
		Values(reportID, movementID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("link movement: %w", err)
	}
	return nil
}

// LinkMovements copies all links in one COPY round-trip. Requires a transaction.
func (r *ReconciliationRepo) LinkMovements(ctx context.Context, reportID int64, movementIDs []int64) error {
	if len(movementIDs) == 0 {
		return nil
	}

	links := make([]reportLink, 0, len(movementIDs))
	for _, movementID := range movementIDs {
		links = append(links, reportLink{ReportID: reportID, MovementID: movementID})
	}

	if _, err := postgres.CopyStructs(ctx, r.txManager, reportLinksTable, links); err != nil {
		return fmt.Errorf("copy report links: %w", err)
	}
	return nil
}
