package catalog_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palletledger/internal/domain/location"
)

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestLocationRepo_ListQuery(t *testing.T) {
	repo := NewLocationRepo(nil)

	tests := []struct {
		name      string
		filter    location.Filter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "NoFilter",
			filter:    location.Filter{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "Status",
			filter:    location.Filter{Status: location.StatusActive},
			wantWhere: " WHERE operational_status = $1",
			wantArgs:  []any{location.StatusActive},
		},
		{
			name:      "StatusAndType",
			filter:    location.Filter{Status: location.StatusActive, Type: location.TypeAirfield},
			wantWhere: " WHERE operational_status = $1 AND location_type = $2",
			wantArgs:  []any{location.StatusActive, location.TypeAirfield},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery(tt.filter).ToSql()
			require.NoError(t, err)

			want := "SELECT " + strings.Join(locationColumns, ", ") + " FROM locations" + tt.wantWhere + " ORDER BY code"
			assert.Equal(t, want, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestLocationRepo_InsertIgnoresUnknownKeys(t *testing.T) {
	repo := NewLocationRepo(nil)
	loc := location.NewSystem(fixedNow)

	sql, args, err := repo.insert(&loc).Suffix("ON CONFLICT (code) DO NOTHING").ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "INSERT INTO locations ("))
	assert.True(t, strings.HasSuffix(sql, "ON CONFLICT (code) DO NOTHING"))
	assert.Len(t, args, len(locationColumns))
}
