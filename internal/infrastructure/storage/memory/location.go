package memory

import (
	"context"
	"slices"
	"strings"

	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/location"
)

var _ location.Repository = (*LocationRepo)(nil)

// LocationRepo implements location.Repository.
type LocationRepo struct {
	store *Store
}

func (r *LocationRepo) Create(ctx context.Context, loc *location.Location) error {
	return r.store.view(ctx, func(st *state) error {
		if _, ok := st.locations[loc.Code]; ok {
			return apperror.NewDuplicateCode(loc.Code)
		}
		st.locations[loc.Code] = *loc
		return nil
	})
}

func (r *LocationRepo) CreateIfAbsent(ctx context.Context, loc *location.Location) (bool, error) {
	var created bool
	err := r.store.view(ctx, func(st *state) error {
		if _, ok := st.locations[loc.Code]; ok {
			return nil
		}
		st.locations[loc.Code] = *loc
		created = true
		return nil
	})
	return created, err
}

func (r *LocationRepo) Get(ctx context.Context, code string) (*location.Location, error) {
	var out *location.Location
	err := r.store.view(ctx, func(st *state) error {
		loc, ok := st.locations[code]
		if !ok {
			return apperror.NewNotFound("location", code)
		}
		out = &loc
		return nil
	})
	return out, err
}

func (r *LocationRepo) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.store.view(ctx, func(st *state) error {
		_, exists = st.locations[code]
		return nil
	})
	return exists, err
}

// Update writes metadata and keeps the stored CurrentStock and CreatedAt.
func (r *LocationRepo) Update(ctx context.Context, loc *location.Location) error {
	return r.store.view(ctx, func(st *state) error {
		cur, ok := st.locations[loc.Code]
		if !ok {
			return apperror.NewNotFound("location", loc.Code)
		}
		next := *loc
		next.CurrentStock = cur.CurrentStock
		next.CreatedAt = cur.CreatedAt
		st.locations[loc.Code] = next
		return nil
	})
}

func (r *LocationRepo) Delete(ctx context.Context, code string) error {
	return r.store.view(ctx, func(st *state) error {
		if _, ok := st.locations[code]; !ok {
			return apperror.NewNotFound("location", code)
		}
		delete(st.locations, code)
		return nil
	})
}

func (r *LocationRepo) List(ctx context.Context, filter location.Filter) ([]location.Location, error) {
	items := make([]location.Location, 0)
	err := r.store.view(ctx, func(st *state) error {
		for _, loc := range st.locations {
			if filter.Status != "" && loc.Status != filter.Status {
				continue
			}
			if filter.Type != "" && loc.Type != filter.Type {
				continue
			}
			items = append(items, loc)
		}
		return nil
	})
	slices.SortFunc(items, func(a, b location.Location) int {
		return strings.Compare(a.Code, b.Code)
	})
	return items, err
}

func (r *LocationRepo) SetCurrentStock(ctx context.Context, code string, stock int64) error {
	return r.store.view(ctx, func(st *state) error {
		loc, ok := st.locations[code]
		if !ok {
			return apperror.NewNotFound("location", code)
		}
		loc.CurrentStock = stock
		st.locations[code] = loc
		return nil
	})
}
