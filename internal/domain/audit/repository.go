package audit

import "context"

// Repository persists audit entries. Implementations never update or delete rows.
type Repository interface {
	// Append inserts entry and returns its assigned id.
	Append(ctx context.Context, entry Entry) (int64, error)

	// List returns entries matching filter, newest first.
	List(ctx context.Context, filter Filter) ([]Entry, error)
}
