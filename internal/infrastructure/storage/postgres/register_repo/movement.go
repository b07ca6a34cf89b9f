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

const movementsTable = "pallet_movements"

var movementColumns = postgres.ExtractDBColumns[ledger.Movement]()

var _ ledger.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implements ledger.MovementRepository. Movements are insert-only.
type MovementRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewMovementRepo creates a new movement repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts m and assigns m.ID.
func (r *MovementRepo) Create(ctx context.Context, m *ledger.Movement) error {
	data := postgres.StructToMap(m)
	delete(data, "id")

	sql, args, err := r.builder.
		Insert(movementsTable).
		SetMap(data).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&m.ID); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// Get returns one movement.
func (r *MovementRepo) Get(ctx context.Context, movementID int64) (*ledger.Movement, error) {
	sql, args, err := r.builder.
		Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"id": movementID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m ledger.Movement
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement", movementID)
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return &m, nil
}

// List returns movements matching filter, newest first.
func (r *MovementRepo) List(ctx context.Context, filter ledger.MovementFilter) ([]ledger.Movement, error) {
	sql, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]ledger.Movement, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return items, nil
}

func (r *MovementRepo) listQuery(filter ledger.MovementFilter) squirrel.SelectBuilder {
	q := r.builder.Select(movementColumns...).From(movementsTable)

	if filter.MissionID != "" {
		q = q.Where(squirrel.ILike{"mission_id": "%" + filter.MissionID + "%"})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	from, until := filter.Bounds()
	if from != nil {
		q = q.Where(squirrel.GtOrEq{"movement_date": *from})
	}
	if until != nil {
		q = q.Where(squirrel.Lt{"movement_date": *until})
	}
	if filter.Location != "" {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"from_location_code": filter.Location},
			squirrel.Eq{"to_location_code": filter.Location},
		})
	}

	return q.OrderBy("movement_date DESC", "id DESC").Limit(uint64(filter.EffectiveLimit()))
}

// CountByLocation counts movements with code on either side.
func (r *MovementRepo) CountByLocation(ctx context.Context, code string) (int64, error) {
	sql, args, err := r.builder.
		Select("COUNT(*)").
		From(movementsTable).
		Where(squirrel.Or{
			squirrel.Eq{"from_location_code": code},
			squirrel.Eq{"to_location_code": code},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return count, nil
}
