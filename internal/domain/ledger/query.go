package ledger

import (
	"context"
	"fmt"
	"strings"

	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/location"
)

// GetBalance returns the balance of a location or NOT_FOUND.
func (e *Engine) GetBalance(ctx context.Context, code string) (*Balance, error) {
	return e.balances.Get(ctx, location.NormalizeCode(code))
}

// GetMovement returns one movement by id.
func (e *Engine) GetMovement(ctx context.Context, movementID int64) (*Movement, error) {
	return e.movements.Get(ctx, movementID)
}

// ListMovements returns movements newest first.
func (e *Engine) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown status %q", filter.Status)).WithDetail("field", "status")
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, apperror.NewValidation("endDate is before startDate")
	}

	filter.MissionID = strings.TrimSpace(filter.MissionID)
	filter.Location = location.NormalizeCode(filter.Location)
	filter.Limit = filter.EffectiveLimit()

	return e.movements.List(ctx, filter)
}

// Summary returns the dashboard roll-up.
func (e *Engine) Summary(ctx context.Context) (Summary, error) {
	s, err := e.summaries.Summary(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("summary: %w", err)
	}
	s.GeneratedAt = e.now()
	return s, nil
}
