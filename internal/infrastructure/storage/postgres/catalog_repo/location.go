// Package catalog_repo provides the PostgreSQL location registry.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/location"
	"palletledger/internal/infrastructure/storage/postgres"
)

const locationTable = "locations"

var locationColumns = postgres.ExtractDBColumns[location.Location]()

// editableColumns are written by Update. code, current_stock and created_at are excluded.
var editableColumns = []string{
	"name", "location_type", "operational_status", "max_capacity",
	"contact_person", "contact_phone", "coordinates", "region", "timezone",
	"is_restricted", "classification_level", "updated_at",
}

var _ location.Repository = (*LocationRepo)(nil)

// LocationRepo implements location.Repository.
type LocationRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLocationRepo creates a new location repository.
func NewLocationRepo(txManager *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Builder returns the squirrel builder with PostgreSQL placeholder format.
func (r *LocationRepo) Builder() squirrel.StatementBuilderType {
	return r.builder
}

// Create inserts a new location.
func (r *LocationRepo) Create(ctx context.Context, loc *location.Location) error {
	sql, args, err := r.insert(loc).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicateCode(loc.Code)
		}
		return fmt.Errorf("insert %s: %w", locationTable, err)
	}
	return nil
}

// CreateIfAbsent inserts loc unless its code exists.
func (r *LocationRepo) CreateIfAbsent(ctx context.Context, loc *location.Location) (bool, error) {
	sql, args, err := r.insert(loc).Suffix("ON CONFLICT (code) DO NOTHING").ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", locationTable, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *LocationRepo) insert(loc *location.Location) squirrel.InsertBuilder {
	return r.builder.
		Insert(locationTable).
		SetMap(postgres.Pick(postgres.StructToMap(loc), locationColumns...))
}

// Get retrieves a location by code.
func (r *LocationRepo) Get(ctx context.Context, code string) (*location.Location, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"code": code}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var loc location.Location
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &loc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("location", code)
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &loc, nil
}

// Exists checks whether a location with code is registered.
func (r *LocationRepo) Exists(ctx context.Context, code string) (bool, error) {
	sql, args, err := r.builder.
		Select("1").
		From(locationTable).
		Where(squirrel.Eq{"code": code}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// Update writes the editable metadata of loc.
func (r *LocationRepo) Update(ctx context.Context, loc *location.Location) error {
	sql, args, err := r.builder.
		Update(locationTable).
		SetMap(postgres.Pick(postgres.StructToMap(loc), editableColumns...)).
		Where(squirrel.Eq{"code": loc.Code}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", locationTable, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("location", loc.Code)
	}
	return nil
}

// Delete removes the location row.
func (r *LocationRepo) Delete(ctx context.Context, code string) error {
	sql, args, err := r.builder.
		Delete(locationTable).
		Where(squirrel.Eq{"code": code}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewHasHistory(code, 0)
		}
		return fmt.Errorf("delete %s: %w", locationTable, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("location", code)
	}
	return nil
}

// List returns locations matching filter ordered by code.
func (r *LocationRepo) List(ctx context.Context, filter location.Filter) ([]location.Location, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]location.Location, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return items, nil
}

func (r *LocationRepo) listQuery(filter location.Filter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"operational_status": filter.Status})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"location_type": filter.Type})
	}
	return q.OrderBy("code")
}

// SetCurrentStock writes the cached stock of code.
func (r *LocationRepo) SetCurrentStock(ctx context.Context, code string, stock int64) error {
	sql, args, err := r.builder.
		Update(locationTable).
		Set("current_stock", stock).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"code": code}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("set current stock: %w", err)
	}
	return nil
}

func (r *LocationRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(locationColumns...).From(locationTable)
}
