package dto

import (
	"strings"
	"time"

	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/ledger"
)

// CreateMovementRequest records one transfer. Field validation is left to the
// ledger engine so that clients get its error codes.
type CreateMovementRequest struct {
	MissionID    string              `json:"missionId"`
	FromLocation string              `json:"fromLocation"`
	ToLocation   string              `json:"toLocation"`
	Quantity     int64               `json:"quantity"`
	Type         ledger.MovementType `json:"type"`
	Priority     string              `json:"priority"`
	Notes        string              `json:"notes"`
	ConfirmedBy  string              `json:"confirmedBy"`
	ReferenceID  string              `json:"referenceId"`
	MovementDate *time.Time          `json:"movementDate"`
}

// ToRequest converts the body into an engine request.
func (r CreateMovementRequest) ToRequest() ledger.MovementRequest {
	return ledger.MovementRequest{
		MissionID:   r.MissionID,
		From:        r.FromLocation,
		To:          r.ToLocation,
		Quantity:    r.Quantity,
		Type:        r.Type,
		Priority:    r.Priority,
		Notes:       r.Notes,
		ConfirmedBy: r.ConfirmedBy,
		ReferenceID: r.ReferenceID,
		Date:        r.MovementDate,
	}
}

// MovementListQuery filters GET /movements.
type MovementListQuery struct {
	MissionID string `form:"missionId"`
	Status    string `form:"status"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Location  string `form:"location"`
	Limit     int    `form:"limit"`
}

// ToFilter parses the dates of the query and converts it into an engine filter.
func (q MovementListQuery) ToFilter() (ledger.MovementFilter, error) {
	start, err := parseDay("startDate", q.StartDate)
	if err != nil {
		return ledger.MovementFilter{}, apperror.NewValidation(err.Error())
	}
	end, err := parseDay("endDate", q.EndDate)
	if err != nil {
		return ledger.MovementFilter{}, apperror.NewValidation(err.Error())
	}

	return ledger.MovementFilter{
		MissionID: q.MissionID,
		Status:    ledger.MovementStatus(strings.ToLower(q.Status)),
		StartDate: start,
		EndDate:   end,
		Location:  q.Location,
		Limit:     q.Limit,
	}, nil
}
