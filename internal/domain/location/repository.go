package location

import "context"

// Repository persists locations.
type Repository interface {
	// Create inserts loc. Returns DUPLICATE_CODE when the code is taken.
	Create(ctx context.Context, loc *Location) error

	// CreateIfAbsent inserts loc unless the code exists and reports whether it inserted.
	CreateIfAbsent(ctx context.Context, loc *Location) (bool, error)

	// Get returns the location or NOT_FOUND.
	Get(ctx context.Context, code string) (*Location, error)

	// Exists reports whether a location with code is registered.
	Exists(ctx context.Context, code string) (bool, error)

	// Update writes the editable metadata of loc. CurrentStock is not touched.
	Update(ctx context.Context, loc *Location) error

	// Delete removes the location row.
	Delete(ctx context.Context, code string) error

	// List returns locations matching filter ordered by code.
	List(ctx context.Context, filter Filter) ([]Location, error)

	// SetCurrentStock writes the cached stock. Reserved for the ledger engine.
	SetCurrentStock(ctx context.Context, code string, stock int64) error
}
