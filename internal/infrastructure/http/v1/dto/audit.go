package dto

import (
	"strings"

	"palletledger/internal/domain/audit"
)

// AuditQuery filters GET /audit.
type AuditQuery struct {
	MovementID *int64 `form:"movementId"`
	TableName  string `form:"table"`
	RecordID   string `form:"recordId"`
	Action     string `form:"action"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// ToFilter converts the query into an audit filter.
func (q AuditQuery) ToFilter() audit.Filter {
	return audit.Filter{
		MovementID: q.MovementID,
		TableName:  q.TableName,
		RecordID:   q.RecordID,
		Action:     audit.Action(strings.ToUpper(q.Action)),
		Limit:      q.Limit,
	}
}
