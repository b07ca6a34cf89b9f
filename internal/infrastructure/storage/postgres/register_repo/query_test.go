package register_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palletledger/internal/domain/ledger"
)

func TestBalanceRepo_LockQuery(t *testing.T) {
	repo := NewBalanceRepo(nil)

	sql, args, err := repo.lockQuery([]string{"ALPHA", "BRAVO"}).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(sql,
		"FROM inventory_balances WHERE pallet_type = $1 AND location_code IN ($2,$3) ORDER BY location_code FOR UPDATE"),
		sql)
	assert.Equal(t, []any{ledger.DefaultPalletType, "ALPHA", "BRAVO"}, args)
}

func TestMovementRepo_ListQuery(t *testing.T) {
	repo := NewMovementRepo(nil)
	start := time.Date(2026, time.January, 10, 15, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.January, 12, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    ledger.MovementFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "DefaultLimit",
			filter:    ledger.MovementFilter{},
			wantWhere: "",
		},
		{
			name:      "Mission",
			filter:    ledger.MovementFilter{MissionID: "alpha"},
			wantWhere: " WHERE mission_id ILIKE $1",
			wantArgs:  []any{"%alpha%"},
		},
		{
			name:      "Location",
			filter:    ledger.MovementFilter{Location: "ALPHA"},
			wantWhere: " WHERE (from_location_code = $1 OR to_location_code = $2)",
			wantArgs:  []any{"ALPHA", "ALPHA"},
		},
		{
			name:      "DateRange",
			filter:    ledger.MovementFilter{StartDate: &start, EndDate: &end},
			wantWhere: " WHERE movement_date >= $1 AND movement_date < $2",
			wantArgs: []any{
				time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
				time.Date(2026, time.January, 13, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery(tt.filter).ToSql()
			require.NoError(t, err)

			want := "FROM pallet_movements" + tt.wantWhere + " ORDER BY movement_date DESC, id DESC LIMIT 100"
			assert.True(t, strings.HasSuffix(sql, want), sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}
