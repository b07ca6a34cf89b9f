// Package ledger implements the double-entry pallet ledger: balances, movements
// and the engine that records transfers between locations.
package ledger

import (
	"time"

	"palletledger/internal/core/id"
)

// DefaultPalletType is the asset type balances are kept for.
const DefaultPalletType = "108x88_STD"

// Balance is the authoritative quantity at one location for one pallet type.
type Balance struct {
	ID                int64      `db:"id" json:"id"`
	LocationCode      string     `db:"location_code" json:"locationCode"`
	PalletType        string     `db:"pallet_type" json:"palletType"`
	Quantity          int64      `db:"quantity" json:"quantity"`
	QuantityAllocated int64      `db:"quantity_allocated" json:"quantityAllocated"`
	QuantityAvailable int64      `db:"quantity_available" json:"quantityAvailable"`
	LastMovementID    *int64     `db:"last_movement_id" json:"lastMovementId,omitempty"`
	LastMovementDate  *time.Time `db:"last_movement_date" json:"lastMovementDate,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewBalance returns a zero balance for code.
func NewBalance(code string, now time.Time) Balance {
	return Balance{
		LocationCode: code,
		PalletType:   DefaultPalletType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Recompute derives QuantityAvailable; it is never set directly.
func (b *Balance) Recompute() {
	b.QuantityAvailable = max(0, b.Quantity-b.QuantityAllocated)
}

func (b *Balance) apply(delta, movementID int64, at, now time.Time) {
	b.Quantity += delta
	b.Recompute()
	b.LastMovementID = &movementID
	b.LastMovementDate = &at
	b.UpdatedAt = now
}

// MovementType classifies why pallets moved.
type MovementType string

const (
	TypeDeployment      MovementType = "deployment"
	TypeReturn          MovementType = "return"
	TypeTransfer        MovementType = "transfer"
	TypeAdjustment      MovementType = "adjustment"
	TypeDamagedWriteoff MovementType = "damaged_writeoff"
)

// IsValid reports whether t is a known movement type.
func (t MovementType) IsValid() bool {
	switch t {
	case TypeDeployment, TypeReturn, TypeTransfer, TypeAdjustment, TypeDamagedWriteoff:
		return true
	}
	return false
}

// MovementStatus is the lifecycle state of a movement. The engine only writes StatusCompleted.
type MovementStatus string

const (
	StatusPending   MovementStatus = "pending"
	StatusInTransit MovementStatus = "in_transit"
	StatusCompleted MovementStatus = "completed"
	StatusException MovementStatus = "exception"
	StatusCancelled MovementStatus = "cancelled"
)

// IsValid reports whether s is a known status.
func (s MovementStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInTransit, StatusCompleted, StatusException, StatusCancelled:
		return true
	}
	return false
}

// DefaultPriority is used when a request leaves priority empty.
const DefaultPriority = "Normal"

// DefaultConfirmedBy is used when neither the request nor the context names an operator.
const DefaultConfirmedBy = "System"

// Movement is an immutable transfer record. Corrections are new offsetting movements.
type Movement struct {
	ID             int64          `db:"id" json:"id"`
	UUID           id.ID          `db:"uuid" json:"uuid"`
	ReferenceID    string         `db:"reference_id" json:"referenceId"`
	MissionID      string         `db:"mission_id" json:"missionId"`
	MovementDate   time.Time      `db:"movement_date" json:"movementDate"`
	FromLocation   string         `db:"from_location_code" json:"fromLocation"`
	ToLocation     string         `db:"to_location_code" json:"toLocation"`
	Quantity       int64          `db:"quantity" json:"quantity"`
	Type           MovementType   `db:"movement_type" json:"type"`
	Priority       string         `db:"priority" json:"priority"`
	Status         MovementStatus `db:"status" json:"status"`
	Notes          string         `db:"notes" json:"notes,omitempty"`
	SourceFile     string         `db:"source_file" json:"sourceFile,omitempty"`
	SourceFileRow  *int           `db:"source_file_row" json:"sourceFileRow,omitempty"`
	IsReconciled   bool           `db:"is_reconciled" json:"isReconciled"`
	HasDiscrepancy bool           `db:"has_discrepancy" json:"hasDiscrepancy"`
	EnteredBy      string         `db:"entered_by" json:"enteredBy,omitempty"`
	ConfirmedBy    string         `db:"confirmed_by" json:"confirmedBy"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}

// MovementRequest is the input of RecordMovement.
type MovementRequest struct {
	MissionID   string
	From        string
	To          string
	Quantity    int64
	Type        MovementType
	Priority    string
	Notes       string
	ConfirmedBy string

	// Optional.
	ReferenceID string
	Date        *time.Time
	SourceFile  string
	SourceRow   *int
}

// DefaultMovementLimit caps ListMovements when no limit is given.
const DefaultMovementLimit = 100

// MaxMovementLimit is the largest page ListMovements returns.
const MaxMovementLimit = 1000

// MovementFilter narrows ListMovements. Dates are inclusive calendar days in UTC.
type MovementFilter struct {
	MissionID string // case-insensitive substring
	Status    MovementStatus
	StartDate *time.Time
	EndDate   *time.Time
	Location  string // matches from or to
	Limit     int
}

// Bounds converts the calendar-day range into a half-open [from, until) interval.
func (f MovementFilter) Bounds() (from, until *time.Time) {
	if f.StartDate != nil {
		d := truncateDay(*f.StartDate)
		from = &d
	}
	if f.EndDate != nil {
		d := truncateDay(*f.EndDate).AddDate(0, 0, 1)
		until = &d
	}
	return from, until
}

// EffectiveLimit clamps Limit into [1, MaxMovementLimit].
func (f MovementFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultMovementLimit
	case f.Limit > MaxMovementLimit:
		return MaxMovementLimit
	}
	return f.Limit
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Summary is the dashboard roll-up of the ledger.
type Summary struct {
	TotalPallets  int64     `json:"totalPallets"`
	InTransit     int64     `json:"inTransit"`
	Discrepancies int64     `json:"discrepancies"`
	SystemBalance int64     `json:"systemBalance"`
	LocationCount int64     `json:"locationCount"`
	MovementCount int64     `json:"movementCount"`
	GeneratedAt   time.Time `json:"generatedAt"`
}
