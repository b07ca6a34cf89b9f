package ledger

import "context"

// BalanceRepository persists balances.
type BalanceRepository interface {
	// Get returns the balance of code or NOT_FOUND.
	Get(ctx context.Context, code string) (*Balance, error)

	// GetForUpdate row-locks the balances of codes in ascending code order and
	// returns them keyed by code. Codes without a balance are absent from the map.
	GetForUpdate(ctx context.Context, codes ...string) (map[string]*Balance, error)

	// CreateZero inserts a zero balance unless one exists.
	CreateZero(ctx context.Context, code string) error

	// Save writes quantities and last-movement fields of b.
	Save(ctx context.Context, b *Balance) error

	// DeleteByLocation drops every balance of code.
	DeleteByLocation(ctx context.Context, code string) error
}

// MovementRepository persists movements. Rows are never updated.
type MovementRepository interface {
	// Create inserts m and assigns m.ID.
	Create(ctx context.Context, m *Movement) error

	// Get returns a movement or NOT_FOUND.
	Get(ctx context.Context, movementID int64) (*Movement, error)

	// List returns movements matching filter, newest movement_date first.
	List(ctx context.Context, filter MovementFilter) ([]Movement, error)

	// CountByLocation counts movements with code as source or destination.
	CountByLocation(ctx context.Context, code string) (int64, error)
}

// SummaryRepository computes dashboard aggregates.
type SummaryRepository interface {
	Summary(ctx context.Context) (Summary, error)
}
