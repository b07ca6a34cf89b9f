// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"palletledger/internal/domain/audit"
)

const auditTable = "ledger_audit_logs"

const defaultAuditLimit = 100

var auditColumns = ExtractDBColumns[audit.Entry]()

// Compile-time check that AuditRepo implements audit.Repository.
var _ audit.Repository = (*AuditRepo)(nil)

// AuditRepo stores the append-only audit trail.
type AuditRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewAuditRepo creates a new audit repository.
func NewAuditRepo(txManager *TxManager) *AuditRepo {
	return &AuditRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts entry and returns its id.
func (r *AuditRepo) Append(ctx context.Context, entry audit.Entry) (int64, error) {
	data := StructToMap(entry)
	delete(data, "id")

	sql, args, err := r.builder.
		Insert(auditTable).
		SetMap(data).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var auditID int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&auditID); err != nil {
		return 0, fmt.Errorf("insert audit: %w", err)
	}
	return auditID, nil
}

// List returns entries newest first.
func (r *AuditRepo) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entries := make([]audit.Entry, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select audit: %w", err)
	}
	return entries, nil
}

func (r *AuditRepo) listQuery(filter audit.Filter) squirrel.SelectBuilder {
	q := r.builder.Select(auditColumns...).From(auditTable)

	if filter.MovementID != nil {
		q = q.Where(squirrel.Eq{"movement_id": *filter.MovementID})
	}
	if filter.TableName != "" {
		q = q.Where(squirrel.Eq{"table_name": filter.TableName})
	}
	if filter.RecordID != "" {
		q = q.Where(squirrel.Eq{"record_id": filter.RecordID})
	}
	if filter.Action != "" {
		q = q.Where(squirrel.Eq{"action": filter.Action})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	return q.OrderBy("created_at DESC", "id DESC").Limit(uint64(limit))
}
