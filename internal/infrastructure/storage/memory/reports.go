package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/ingest"
)

var _ ingest.Repository = (*ReportRepo)(nil)

// ReportRepo implements ingest.Repository.
type ReportRepo struct {
	store *Store
}

func (st *state) report(reportID int64) (int, bool) {
	for i, rep := range st.reports {
		if rep.ID == reportID {
			return i, true
		}
	}
	return -1, false
}

func (st *state) withLinks(rep ingest.Report) *ingest.Report {
	rep.MovementIDs = append(make([]int64, 0, len(st.links[rep.ID])), st.links[rep.ID]...)
	return &rep
}

// Claim reserves fileHash until release is called.
func (r *ReportRepo) Claim(_ context.Context, fileHash string) (func(), error) {
	s := r.store
	s.claimMu.Lock()
	defer s.claimMu.Unlock()
	if _, held := s.claims[fileHash]; held {
		return nil, apperror.NewIngestInProgress(fileHash)
	}
	s.claims[fileHash] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.claimMu.Lock()
			delete(s.claims, fileHash)
			s.claimMu.Unlock()
		})
	}, nil
}

func (r *ReportRepo) FindByHash(ctx context.Context, fileHash string) (*ingest.Report, error) {
	var out *ingest.Report
	err := r.store.view(ctx, func(st *state) error {
		for _, rep := range st.reports {
			if rep.FileHash == fileHash {
				out = st.withLinks(rep)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ReportRepo) Get(ctx context.Context, reportID int64) (*ingest.Report, error) {
	var out *ingest.Report
	err := r.store.view(ctx, func(st *state) error {
		i, ok := st.report(reportID)
		if !ok {
			return apperror.NewNotFound("report", reportID)
		}
		out = st.withLinks(st.reports[i])
		return nil
	})
	return out, err
}

func (r *ReportRepo) List(ctx context.Context, limit int) ([]ingest.Report, error) {
	items := make([]ingest.Report, 0)
	err := r.store.view(ctx, func(st *state) error {
		items = append(items, st.reports...)
		return nil
	})
	slices.SortFunc(items, func(a, b ingest.Report) int {
		if c := b.ProcessedAt.Compare(a.ProcessedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	for i := range items {
		items[i].MovementIDs = nil
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, err
}

func (r *ReportRepo) Create(ctx context.Context, rep *ingest.Report) error {
	return r.store.view(ctx, func(st *state) error {
		for _, existing := range st.reports {
			if existing.FileHash == rep.FileHash {
				return apperror.NewDuplicateReport(rep.FileHash)
			}
		}
		st.reportSeq++
		rep.ID = st.reportSeq
		stored := *rep
		stored.MovementIDs = nil
		st.reports = append(st.reports, stored)
		return nil
	})
}

func (r *ReportRepo) Finalize(ctx context.Context, rep *ingest.Report) error {
	return r.store.view(ctx, func(st *state) error {
		i, ok := st.report(rep.ID)
		if !ok {
			return apperror.NewNotFound("report", rep.ID)
		}
		cur := &st.reports[i]
		cur.TotalRows = rep.TotalRows
		cur.SuccessfulRows = rep.SuccessfulRows
		cur.FailedRows = rep.FailedRows
		cur.DiscrepanciesFound = rep.DiscrepanciesFound
		cur.Status = rep.Status
		cur.ProcessingErrors = rep.ProcessingErrors
		cur.CompletedAt = rep.CompletedAt
		return nil
	})
}

func (r *ReportRepo) LinkMovement(ctx context.Context, reportID, movementID int64) error {
	return r.LinkMovements(ctx, reportID, []int64{movementID})
}

func (r *ReportRepo) LinkMovements(ctx context.Context, reportID int64, movementIDs []int64) error {
	return r.store.view(ctx, func(st *state) error {
		if _, ok := st.report(reportID); !ok {
			return apperror.NewNotFound("report", reportID)
		}
		st.links[reportID] = append(st.links[reportID], movementIDs...)
		return nil
	})
}
