// Package audit holds the append-only ledger audit trail.
package audit

import (
	"encoding/json"
	"time"
)

// Action is the kind of audited mutation.
type Action string

const (
	ActionMovement Action = "MOVEMENT"
	ActionCreate   Action = "CREATE"
	ActionUpdate   Action = "UPDATE"
	ActionDelete   Action = "DELETE"
)

// Compression names the codec used for Details.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// Entry is one immutable audit row.
//
// For ActionMovement the debit side is the source location and the credit side
// the destination; the four balance fields capture both sides before and after.
// Metadata edits leave the movement fields zero and describe the change in Details.
type Entry struct {
	ID         int64  `db:"id" json:"id"`
	MovementID *int64 `db:"movement_id" json:"movementId,omitempty"`
	Action     Action `db:"action" json:"action"`
	TableName  string `db:"table_name" json:"tableName"`
	RecordID   string `db:"record_id" json:"recordId"`

	DebitLocation       string `db:"debit_location_code" json:"debitLocation,omitempty"`
	CreditLocation      string `db:"credit_location_code" json:"creditLocation,omitempty"`
	Quantity            int64  `db:"quantity" json:"quantity"`
	DebitBalanceBefore  int64  `db:"debit_balance_before" json:"debitBalanceBefore"`
	DebitBalanceAfter   int64  `db:"debit_balance_after" json:"debitBalanceAfter"`
	CreditBalanceBefore int64  `db:"credit_balance_before" json:"creditBalanceBefore"`
	CreditBalanceAfter  int64  `db:"credit_balance_after" json:"creditBalanceAfter"`

	UserID            string          `db:"user_id" json:"userId,omitempty"`
	Details           json.RawMessage `db:"details" json:"details,omitempty"`
	DetailsCompressed []byte          `db:"details_compressed" json:"-"`
	Compression       Compression     `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// Reconciles reports whether a movement entry's balances agree with its quantity.
func (e Entry) Reconciles() bool {
	if e.Action != ActionMovement {
		return true
	}
	return e.DebitBalanceAfter == e.DebitBalanceBefore-e.Quantity &&
		e.CreditBalanceAfter == e.CreditBalanceBefore+e.Quantity
}

// Filter narrows an audit trail query. Zero values match everything.
type Filter struct {
	MovementID *int64
	TableName  string
	RecordID   string
	Action     Action
	Limit      int
}
