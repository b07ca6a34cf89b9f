package ingest

import (
	"context"

	"palletledger/internal/domain/ledger"
)

// Repository persists reconciliation reports and their movement links.
type Repository interface {
	// Claim reserves fileHash for a single run and fails with
	// INGEST_IN_PROGRESS while another run holds it. release frees the claim.
	Claim(ctx context.Context, fileHash string) (release func(), err error)

	// FindByHash returns the report for fileHash, or nil when none exists.
	FindByHash(ctx context.Context, fileHash string) (*Report, error)

	// Get returns a report with its movement ids, or NOT_FOUND.
	Get(ctx context.Context, reportID int64) (*Report, error)

	// List returns reports newest first.
	List(ctx context.Context, limit int) ([]Report, error)

	// Create inserts r and assigns r.ID.
	Create(ctx context.Context, r *Report) error

	// Finalize writes counts, status, errors and completed_at of r.
	Finalize(ctx context.Context, r *Report) error

	// LinkMovement records that reportID produced movementID.
	LinkMovement(ctx context.Context, reportID, movementID int64) error

	// LinkMovements records several links at once.
	LinkMovements(ctx context.Context, reportID int64, movementIDs []int64) error
}

// TableReader parses raw file content into a Table. The filename selects the format.
type TableReader interface {
	Read(filename string, data []byte) (*Table, error)
}

// Recorder is the ledger entry point rows are replayed through.
type Recorder interface {
	RecordMovement(ctx context.Context, req ledger.MovementRequest) (*ledger.Movement, error)
}
