package location_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/audit"
	"palletledger/internal/domain/ledger"
	"palletledger/internal/domain/location"
	"palletledger/internal/infrastructure/storage/memory"
)

type fixture struct {
	store    *memory.Store
	registry *location.Registry
	engine   *ledger.Engine
	audit    *audit.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	auditSvc, err := audit.NewService(store.Audit())
	require.NoError(t, err)

	txm := store.TxManager()
	return &fixture{
		store:    store,
		registry: location.NewRegistry(txm, store.Locations(), store.Balances(), store.Movements(), auditSvc),
		engine:   ledger.NewEngine(txm, store.Locations(), store.Balances(), store.Movements(), store.Summary(), auditSvc),
		audit:    auditSvc,
	}
}

func ptr[T any](v T) *T { return &v }

func TestRegister_Defaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	loc, err := f.registry.Register(ctx, location.RegisterInput{Code: " fob-1 ", Name: "Forward Base One"})
	require.NoError(t, err)

	assert.Equal(t, "FOB-1", loc.Code)
	assert.Equal(t, location.TypeForwardBase, loc.Type)
	assert.Equal(t, location.StatusActive, loc.Status)
	assert.Equal(t, location.DefaultCapacity, loc.MaxCapacity)
	assert.Equal(t, "UTC", loc.Timezone)
	assert.True(t, loc.IsRestricted)
	assert.Equal(t, "UNCLASSIFIED", loc.ClassificationLevel)
	assert.Zero(t, loc.CurrentStock)

	b, err := f.store.Balances().Get(ctx, "FOB-1")
	require.NoError(t, err)
	assert.Zero(t, b.Quantity)

	entries, err := f.audit.Trail(ctx, audit.Filter{TableName: location.TableName, RecordID: "FOB-1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionCreate, entries[0].Action)
}

func TestRegister_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.registry.Register(ctx, location.RegisterInput{Code: "ALPHA", Name: "Alpha"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   location.RegisterInput
		code string
	}{
		{name: "ShortCode", in: location.RegisterInput{Code: "AB", Name: "x"}, code: apperror.CodeInvalidCode},
		{name: "ShortMultibyteCode", in: location.RegisterInput{Code: "äö", Name: "x"}, code: apperror.CodeInvalidCode},
		{name: "ReservedCode", in: location.RegisterInput{Code: "system", Name: "x"}, code: apperror.CodeInvalidCode},
		{name: "MissingName", in: location.RegisterInput{Code: "BRAVO", Name: "  "}, code: apperror.CodeValidation},
		{name: "UnknownType", in: location.RegisterInput{Code: "BRAVO", Name: "x", Type: "castle"}, code: apperror.CodeValidation},
		{name: "VirtualType", in: location.RegisterInput{Code: "BRAVO", Name: "x", Type: location.TypeVirtual}, code: apperror.CodeValidation},
		{name: "NegativeCapacity", in: location.RegisterInput{Code: "BRAVO", Name: "x", MaxCapacity: ptr(int64(-1))}, code: apperror.CodeValidation},
		{name: "Duplicate", in: location.RegisterInput{Code: "alpha", Name: "x"}, code: apperror.CodeDuplicateCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.registry.Register(ctx, tt.in)
			assert.True(t, apperror.IsCode(err, tt.code), "got %v", err)
		})
	}

	items, err := f.registry.List(ctx, location.Filter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRegister_CountsCharactersNotBytes(t *testing.T) {
	f := newFixture(t)

	loc, err := f.registry.Register(context.Background(), location.RegisterInput{Code: "äöü", Name: "Umlaut Depot"})
	require.NoError(t, err)
	assert.Equal(t, "ÄÖÜ", loc.Code)
}

func TestUpdate_RecordsDiff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.registry.Register(ctx, location.RegisterInput{Code: "ALPHA", Name: "Alpha"})
	require.NoError(t, err)

	updated, err := f.registry.Update(ctx, "alpha", location.UpdateInput{
		Name:   ptr("Alpha Main"),
		Status: ptr(location.StatusMaintenance),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alpha Main", updated.Name)
	assert.Equal(t, location.StatusMaintenance, updated.Status)

	entries, err := f.audit.Trail(ctx, audit.Filter{Action: audit.ActionUpdate})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var changes map[string]map[string]any
	require.NoError(t, json.Unmarshal(entries[0].Details, &changes))
	assert.Len(t, changes, 2)
	assert.Equal(t, "Alpha", changes["name"]["old"])
	assert.Equal(t, "Alpha Main", changes["name"]["new"])
	assert.Equal(t, "maintenance", changes["operational_status"]["new"])
}

func TestUpdate_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.registry.Register(ctx, location.RegisterInput{Code: "ALPHA", Name: "Alpha"})
	require.NoError(t, err)

	_, err = f.registry.Update(ctx, "ALPHA", location.UpdateInput{})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.registry.Update(ctx, "GHOST", location.UpdateInput{Name: ptr("x")})
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.registry.Update(ctx, "ALPHA", location.UpdateInput{Type: ptr(location.TypeVirtual)})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	loc, err := f.registry.Get(ctx, "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, location.TypeForwardBase, loc.Type)
}

func TestUpdate_DoesNotTouchStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.registry.Register(ctx, location.RegisterInput{Code: "ALPHA", Name: "Alpha"})
	require.NoError(t, err)
	_, err = f.engine.RecordMovement(ctx, ledger.MovementRequest{From: location.SystemCode, To: "ALPHA", Quantity: 12})
	require.NoError(t, err)

	loc, err := f.registry.Update(ctx, "ALPHA", location.UpdateInput{Region: ptr("North")})
	require.NoError(t, err)
	assert.Equal(t, "North", loc.Region)

	got, err := f.registry.Get(ctx, "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.CurrentStock)
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, code := range []string{"ALPHA", "BRAVO"} {
		_, err := f.registry.Register(ctx, location.RegisterInput{Code: code, Name: code})
		require.NoError(t, err)
	}
	_, err := f.engine.RecordMovement(ctx, ledger.MovementRequest{From: location.SystemCode, To: "ALPHA", Quantity: 3})
	require.NoError(t, err)

	err = f.registry.Remove(ctx, "ALPHA")
	assert.True(t, apperror.IsCode(err, apperror.CodeHasHistory))

	require.NoError(t, f.registry.Remove(ctx, "bravo"))
	_, err = f.registry.Get(ctx, "BRAVO")
	assert.True(t, apperror.IsNotFound(err))
	_, err = f.store.Balances().Get(ctx, "BRAVO")
	assert.True(t, apperror.IsNotFound(err))

	entries, err := f.audit.Trail(ctx, audit.Filter{Action: audit.ActionDelete})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "BRAVO", entries[0].RecordID)

	err = f.registry.Remove(ctx, "GHOST")
	assert.True(t, apperror.IsNotFound(err))
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.registry.Register(ctx, location.RegisterInput{Code: "ALPHA", Name: "a", Type: location.TypeAirfield})
	require.NoError(t, err)
	_, err = f.registry.Register(ctx, location.RegisterInput{Code: "BRAVO", Name: "b", Status: location.StatusInactive})
	require.NoError(t, err)

	airfields, err := f.registry.List(ctx, location.Filter{Type: location.TypeAirfield})
	require.NoError(t, err)
	require.Len(t, airfields, 1)
	assert.Equal(t, "ALPHA", airfields[0].Code)

	inactive, err := f.registry.List(ctx, location.Filter{Status: location.StatusInactive})
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "BRAVO", inactive[0].Code)
}
