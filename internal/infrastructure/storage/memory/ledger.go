package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/ledger"
	"palletledger/internal/domain/location"
)

var (
	_ ledger.BalanceRepository  = (*BalanceRepo)(nil)
	_ ledger.MovementRepository = (*MovementRepo)(nil)
	_ ledger.SummaryRepository  = (*SummaryRepo)(nil)
)

// BalanceRepo implements ledger.BalanceRepository. Balances are keyed by location
// code for the default pallet type.
type BalanceRepo struct {
	store *Store
}

func (r *BalanceRepo) Get(ctx context.Context, code string) (*ledger.Balance, error) {
	var out *ledger.Balance
	err := r.store.view(ctx, func(st *state) error {
		b, ok := st.balances[code]
		if !ok {
			return apperror.NewNotFound("balance", code)
		}
		out = &b
		return nil
	})
	return out, err
}

// GetForUpdate returns copies of the balances. The transaction already holds the
// store exclusively, so no further locking is needed.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, codes ...string) (map[string]*ledger.Balance, error) {
	out := make(map[string]*ledger.Balance, len(codes))
	err := r.store.view(ctx, func(st *state) error {
		for _, code := range codes {
			if b, ok := st.balances[code]; ok {
				out[code] = &b
			}
		}
		return nil
	})
	return out, err
}

func (r *BalanceRepo) CreateZero(ctx context.Context, code string) error {
	return r.store.view(ctx, func(st *state) error {
		if _, ok := st.balances[code]; ok {
			return nil
		}
		st.balanceSeq++
		b := ledger.NewBalance(code, time.Now().UTC())
		b.ID = st.balanceSeq
		st.balances[code] = b
		return nil
	})
}

func (r *BalanceRepo) Save(ctx context.Context, b *ledger.Balance) error {
	return r.store.view(ctx, func(st *state) error {
		cur, ok := st.balances[b.LocationCode]
		if !ok {
			return apperror.NewNotFound("balance", b.LocationCode)
		}
		next := *b
		next.ID = cur.ID
		next.CreatedAt = cur.CreatedAt
		st.balances[b.LocationCode] = next
		return nil
	})
}

func (r *BalanceRepo) DeleteByLocation(ctx context.Context, code string) error {
	return r.store.view(ctx, func(st *state) error {
		delete(st.balances, code)
		return nil
	})
}

// MovementRepo implements ledger.MovementRepository.
type MovementRepo struct {
	store *Store
}

func (r *MovementRepo) Create(ctx context.Context, m *ledger.Movement) error {
	return r.store.view(ctx, func(st *state) error {
		st.movementSeq++
		m.ID = st.movementSeq
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *MovementRepo) Get(ctx context.Context, movementID int64) (*ledger.Movement, error) {
	var out *ledger.Movement
	err := r.store.view(ctx, func(st *state) error {
		for _, m := range st.movements {
			if m.ID == movementID {
				out = &m
				return nil
			}
		}
		return apperror.NewNotFound("movement", movementID)
	})
	return out, err
}

func (r *MovementRepo) List(ctx context.Context, filter ledger.MovementFilter) ([]ledger.Movement, error) {
	from, until := filter.Bounds()
	mission := strings.ToLower(filter.MissionID)

	items := make([]ledger.Movement, 0)
	err := r.store.view(ctx, func(st *state) error {
		for _, m := range st.movements {
			if mission != "" && !strings.Contains(strings.ToLower(m.MissionID), mission) {
				continue
			}
			if filter.Status != "" && m.Status != filter.Status {
				continue
			}
			if from != nil && m.MovementDate.Before(*from) {
				continue
			}
			if until != nil && !m.MovementDate.Before(*until) {
				continue
			}
			if filter.Location != "" && m.FromLocation != filter.Location && m.ToLocation != filter.Location {
				continue
			}
			items = append(items, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(items, func(a, b ledger.Movement) int {
		if c := b.MovementDate.Compare(a.MovementDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if limit := filter.EffectiveLimit(); len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *MovementRepo) CountByLocation(ctx context.Context, code string) (int64, error) {
	var count int64
	err := r.store.view(ctx, func(st *state) error {
		for _, m := range st.movements {
			if m.FromLocation == code || m.ToLocation == code {
				count++
			}
		}
		return nil
	})
	return count, err
}

// SummaryRepo implements ledger.SummaryRepository.
type SummaryRepo struct {
	store *Store
}

func (r *SummaryRepo) Summary(ctx context.Context) (ledger.Summary, error) {
	var s ledger.Summary
	err := r.store.view(ctx, func(st *state) error {
		for code, b := range st.balances {
			if code == location.SystemCode {
				s.SystemBalance += b.Quantity
				continue
			}
			s.TotalPallets += b.Quantity
		}
		for code := range st.locations {
			if code != location.SystemCode {
				s.LocationCount++
			}
		}
		for _, m := range st.movements {
			s.MovementCount++
			if m.Status == ledger.StatusInTransit {
				s.InTransit += m.Quantity
			}
			if m.HasDiscrepancy {
				s.Discrepancies++
			}
		}
		return nil
	})
	return s, err
}
