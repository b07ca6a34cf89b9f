package memory

import (
	"context"

	"palletledger/internal/domain/audit"
)

const defaultAuditLimit = 100

var _ audit.Repository = (*AuditRepo)(nil)

// AuditRepo implements audit.Repository.
type AuditRepo struct {
	store *Store
}

func (r *AuditRepo) Append(ctx context.Context, entry audit.Entry) (int64, error) {
	var auditID int64
	err := r.store.view(ctx, func(st *state) error {
		st.auditSeq++
		entry.ID = st.auditSeq
		st.audit = append(st.audit, entry)
		auditID = entry.ID
		return nil
	})
	return auditID, err
}

// List walks the trail backwards, so insertion order stands in for created_at.
func (r *AuditRepo) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	items := make([]audit.Entry, 0)
	err := r.store.view(ctx, func(st *state) error {
		for i := len(st.audit) - 1; i >= 0 && len(items) < limit; i-- {
			e := st.audit[i]
			if filter.MovementID != nil && (e.MovementID == nil || *e.MovementID != *filter.MovementID) {
				continue
			}
			if filter.TableName != "" && e.TableName != filter.TableName {
				continue
			}
			if filter.RecordID != "" && e.RecordID != filter.RecordID {
				continue
			}
			if filter.Action != "" && e.Action != filter.Action {
				continue
			}
			items = append(items, e)
		}
		return nil
	})
	return items, err
}
