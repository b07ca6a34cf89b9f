// Package report_repo provides PostgreSQL implementations for reconciliation
// reports and the ledger summary.
package report_repo

import (
	"context"
	"fmt"

	"palletledger/internal/domain/ledger"
	"palletledger/internal/domain/location"
	"palletledger/internal/infrastructure/storage/postgres"
)

var _ ledger.SummaryRepository = (*SummaryRepo)(nil)

// SummaryRepo implements ledger.SummaryRepository.
type SummaryRepo struct {
	txManager *postgres.TxManager
}

// NewSummaryRepo creates a new summary repository.
func NewSummaryRepo(txManager *postgres.TxManager) *SummaryRepo {
	return &SummaryRepo{txManager: txManager}
}

const summaryQuery = `
	SELECT
		COALESCE((SELECT SUM(quantity) FROM inventory_balances WHERE location_code <> $1), 0) AS total_pallets,
		COALESCE((SELECT SUM(quantity) FROM pallet_movements WHERE status = $2), 0) AS in_transit,
		(SELECT COUNT(*) FROM pallet_movements WHERE has_discrepancy) AS discrepancies,
		COALESCE((SELECT SUM(quantity) FROM inventory_balances WHERE location_code = $1), 0) AS system_balance,
		(SELECT COUNT(*) FROM locations WHERE code <> $1) AS location_count,
		(SELECT COUNT(*) FROM pallet_movements) AS movement_count
`

// Summary computes the dashboard aggregates in one round-trip.
func (r *SummaryRepo) Summary(ctx context.Context) (ledger.Summary, error) {
	var s ledger.Summary
	err := r.txManager.GetQuerier(ctx).
		QueryRow(ctx, summaryQuery, location.SystemCode, string(ledger.StatusInTransit)).
		Scan(&s.TotalPallets, &s.InTransit, &s.Discrepancies, &s.SystemBalance, &s.LocationCount, &s.MovementCount)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("summary: %w", err)
	}
	return s, nil
}
