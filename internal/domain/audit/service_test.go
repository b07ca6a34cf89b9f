package audit_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "palletledger/internal/core/context"
	"palletledger/internal/domain/audit"
	"palletledger/internal/infrastructure/storage/memory"
)

func newService(t *testing.T, threshold int) (*audit.Service, audit.Repository) {
	t.Helper()
	repo := memory.NewStore().Audit()
	svc, err := audit.NewService(repo)
	require.NoError(t, err)
	return svc.WithCompressThreshold(threshold), repo
}

func TestLog_FillsOperatorAndTime(t *testing.T) {
	svc, _ := newService(t, audit.DefaultCompressThreshold)
	ctx := appctx.WithOperator(context.Background(), &appctx.OperatorContext{OperatorID: "sgt.okafor", Source: "cli"})

	_, err := svc.Log(ctx, audit.Entry{Action: audit.ActionCreate, TableName: "locations", RecordID: "ALPHA"})
	require.NoError(t, err)

	entries, err := svc.Trail(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sgt.okafor", entries[0].UserID)
	assert.False(t, entries[0].CreatedAt.IsZero())
	assert.Equal(t, audit.CompressionNone, entries[0].Compression)
}

func TestLog_CompressesLargeDetails(t *testing.T) {
	svc, repo := newService(t, 64)
	ctx := context.Background()
	changes := map[string]any{"notes": map[string]any{"old": "", "new": strings.Repeat("pallet ", 40)}}

	require.NoError(t, svc.LogChange(ctx, audit.ActionUpdate, "locations", "ALPHA", changes))

	raw, err := repo.List(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, audit.CompressionZstd, raw[0].Compression)
	assert.Empty(t, raw[0].Details)
	assert.NotEmpty(t, raw[0].DetailsCompressed)

	entries, err := svc.Trail(ctx, audit.Filter{RecordID: "ALPHA"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].DetailsCompressed)

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal(entries[0].Details, &got))
	assert.Equal(t, strings.Repeat("pallet ", 40), got["notes"]["new"])
}

func TestLog_SmallDetailsStayPlain(t *testing.T) {
	svc, repo := newService(t, 1024)
	ctx := context.Background()

	require.NoError(t, svc.LogChange(ctx, audit.ActionDelete, "locations", "BRAVO", map[string]any{"code": "BRAVO"}))

	raw, err := repo.List(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, audit.CompressionNone, raw[0].Compression)
	assert.JSONEq(t, `{"code":"BRAVO"}`, string(raw[0].Details))
}

func TestDiff(t *testing.T) {
	oldState := map[string]any{"name": "Alpha", "capacity": int64(100), "region": "North"}
	newState := map[string]any{"name": "Alpha", "capacity": 250, "timezone": "UTC"}

	changes := audit.Diff(oldState, newState)

	assert.Len(t, changes, 3)
	assert.Equal(t, map[string]any{"old": int64(100), "new": 250}, changes["capacity"])
	assert.Equal(t, map[string]any{"old": nil, "new": "UTC"}, changes["timezone"])
	assert.Equal(t, map[string]any{"old": "North", "new": nil}, changes["region"])
	assert.NotContains(t, changes, "name")
}

func TestEntry_Reconciles(t *testing.T) {
	ok := audit.Entry{Action: audit.ActionMovement, Quantity: 5, DebitBalanceBefore: 10, DebitBalanceAfter: 5, CreditBalanceBefore: 0, CreditBalanceAfter: 5}
	assert.True(t, ok.Reconciles())

	bad := ok
	bad.CreditBalanceAfter = 4
	assert.False(t, bad.Reconciles())

	assert.True(t, audit.Entry{Action: audit.ActionUpdate}.Reconciles())
}
