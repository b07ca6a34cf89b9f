package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palletledger/internal/core/apperror"
	"palletledger/internal/domain/audit"
	"palletledger/internal/domain/ingest"
	"palletledger/internal/domain/ledger"
	"palletledger/internal/domain/location"
)

var errBoom = errors.New("boom")

func newLocation(code string) *location.Location {
	now := time.Now().UTC()
	return &location.Location{
		Code:      code,
		Name:      "Base " + code,
		Type:      location.TypeForwardBase,
		Status:    location.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTxManager_RollbackOnError(t *testing.T) {
	store := NewStore()
	txm := store.TxManager()
	ctx := context.Background()

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, store.Locations().Create(ctx, newLocation("ALPHA")))
		require.NoError(t, store.Balances().CreateZero(ctx, "ALPHA"))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	exists, err := store.Locations().Exists(ctx, "ALPHA")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Balances().Get(ctx, "ALPHA")
	assert.True(t, apperror.IsNotFound(err))
}

func TestTxManager_RollbackOnPanic(t *testing.T) {
	store := NewStore()
	txm := store.TxManager()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = txm.RunInTransaction(ctx, func(ctx context.Context) error {
			_ = store.Locations().Create(ctx, newLocation("ALPHA"))
			panic("crash")
		})
	})

	exists, err := store.Locations().Exists(ctx, "ALPHA")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTxManager_SavepointRollsBackOnlyItself(t *testing.T) {
	store := NewStore()
	txm := store.TxManager()
	ctx := context.Background()

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := store.Locations().Create(ctx, newLocation("ALPHA")); err != nil {
			return err
		}

		spErr := txm.RunInSavepoint(ctx, func(ctx context.Context) error {
			_ = store.Locations().Create(ctx, newLocation("BRAVO"))
			return errBoom
		})
		assert.ErrorIs(t, spErr, errBoom)

		return txm.RunInSavepoint(ctx, func(ctx context.Context) error {
			return store.Locations().Create(ctx, newLocation("CHARLIE"))
		})
	})
	require.NoError(t, err)

	items, err := store.Locations().List(ctx, location.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ALPHA", items[0].Code)
	assert.Equal(t, "CHARLIE", items[1].Code)
}

func TestTxManager_NestedReusesOuter(t *testing.T) {
	store := NewStore()
	txm := store.TxManager()
	ctx := context.Background()

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return txm.RunInTransaction(ctx, func(ctx context.Context) error {
			return store.Locations().Create(ctx, newLocation("ALPHA"))
		})
	})
	require.NoError(t, err)

	exists, err := store.Locations().Exists(ctx, "ALPHA")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocationRepo_CreateDuplicate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Locations().Create(ctx, newLocation("ALPHA")))
	err := store.Locations().Create(ctx, newLocation("ALPHA"))
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicateCode))

	created, err := store.Locations().CreateIfAbsent(ctx, newLocation("ALPHA"))
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLocationRepo_UpdateKeepsStock(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := store.Locations()

	require.NoError(t, repo.Create(ctx, newLocation("ALPHA")))
	require.NoError(t, repo.SetCurrentStock(ctx, "ALPHA", 40))

	loc, err := repo.Get(ctx, "ALPHA")
	require.NoError(t, err)
	loc.Name = "Renamed"
	loc.CurrentStock = 0
	require.NoError(t, repo.Update(ctx, loc))

	got, err := repo.Get(ctx, "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, int64(40), got.CurrentStock)
}

func TestBalanceRepo_ReturnsCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := store.Balances()

	require.NoError(t, repo.CreateZero(ctx, "ALPHA"))
	require.NoError(t, repo.CreateZero(ctx, "ALPHA"))

	locked, err := repo.GetForUpdate(ctx, "ALPHA", "MISSING")
	require.NoError(t, err)
	require.Len(t, locked, 1)
	locked["ALPHA"].Quantity = 99

	b, err := repo.Get(ctx, "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Quantity)
	assert.Equal(t, ledger.DefaultPalletType, b.PalletType)
}

func TestMovementRepo_ListFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := store.Movements()

	day := func(d, h int) time.Time { return time.Date(2026, time.February, d, h, 0, 0, 0, time.UTC) }
	for _, m := range []ledger.Movement{
		{MissionID: "OP-ALPHA-1", FromLocation: "SYSTEM", ToLocation: "ALPHA", Quantity: 10, MovementDate: day(1, 9), Status: ledger.StatusCompleted},
		{MissionID: "op-alpha-2", FromLocation: "ALPHA", ToLocation: "BRAVO", Quantity: 5, MovementDate: day(2, 23), Status: ledger.StatusCompleted},
		{MissionID: "OP-BRAVO", FromLocation: "BRAVO", ToLocation: "CHARLIE", Quantity: 1, MovementDate: day(3, 0), Status: ledger.StatusInTransit},
	} {
		require.NoError(t, repo.Create(ctx, &m))
	}

	all, err := repo.List(ctx, ledger.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)

	byMission, err := repo.List(ctx, ledger.MovementFilter{MissionID: "alpha"})
	require.NoError(t, err)
	assert.Len(t, byMission, 2)

	start, end := day(1, 12), day(2, 1)
	byDate, err := repo.List(ctx, ledger.MovementFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	byLocation, err := repo.List(ctx, ledger.MovementFilter{Location: "BRAVO"})
	require.NoError(t, err)
	assert.Len(t, byLocation, 2)

	byStatus, err := repo.List(ctx, ledger.MovementFilter{Status: ledger.StatusInTransit})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "OP-BRAVO", byStatus[0].MissionID)

	limited, err := repo.List(ctx, ledger.MovementFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	count, err := repo.CountByLocation(ctx, "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestAuditRepo_ListNewestFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := store.Audit()

	mv := int64(7)
	_, err := repo.Append(ctx, audit.Entry{Action: audit.ActionCreate, TableName: "locations", RecordID: "ALPHA"})
	require.NoError(t, err)
	_, err = repo.Append(ctx, audit.Entry{Action: audit.ActionMovement, TableName: "pallet_movements", RecordID: "7", MovementID: &mv})
	require.NoError(t, err)
	lastID, err := repo.Append(ctx, audit.Entry{Action: audit.ActionUpdate, TableName: "locations", RecordID: "ALPHA"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), lastID)

	all, err := repo.List(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, audit.ActionUpdate, all[0].Action)

	byMovement, err := repo.List(ctx, audit.Filter{MovementID: &mv})
	require.NoError(t, err)
	require.Len(t, byMovement, 1)
	assert.Equal(t, "7", byMovement[0].RecordID)

	byRecord, err := repo.List(ctx, audit.Filter{RecordID: "ALPHA", Limit: 1})
	require.NoError(t, err)
	require.Len(t, byRecord, 1)
	assert.Equal(t, audit.ActionUpdate, byRecord[0].Action)
}

func TestReportRepo_Lifecycle(t *testing.T) {
	store := NewStore()
	txm := store.TxManager()
	ctx := context.Background()
	repo := store.Reports()

	rep := &ingest.Report{FileHash: "abc", Status: ingest.StatusProcessing, ProcessedAt: time.Now().UTC()}
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, rep); err != nil {
			return err
		}
		if err := repo.LinkMovement(ctx, rep.ID, 1); err != nil {
			return err
		}
		if err := repo.LinkMovements(ctx, rep.ID, []int64{2, 3}); err != nil {
			return err
		}
		rep.Status = ingest.StatusCompleted
		rep.SuccessfulRows = 3
		return repo.Finalize(ctx, rep)
	})
	require.NoError(t, err)

	found, err := repo.FindByHash(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, ingest.StatusCompleted, found.Status)
	assert.Equal(t, []int64{1, 2, 3}, found.MovementIDs)

	missing, err := repo.FindByHash(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Create(ctx, &ingest.Report{FileHash: "abc"})
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicateReport), "got %v", err)

	_, err = repo.Get(ctx, 42)
	assert.True(t, apperror.IsNotFound(err))
}

func TestReportRepo_Claim(t *testing.T) {
	store := NewStore()
	repo := store.Reports()
	ctx := context.Background()

	release, err := repo.Claim(ctx, "abc")
	require.NoError(t, err)

	_, err = repo.Claim(ctx, "abc")
	assert.True(t, apperror.IsCode(err, apperror.CodeIngestInProgress), "got %v", err)

	other, err := repo.Claim(ctx, "def")
	require.NoError(t, err)
	other()

	// A rolled back transaction must not drop a claim held outside it.
	_ = store.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		return errBoom
	})
	_, err = repo.Claim(ctx, "abc")
	assert.True(t, apperror.IsCode(err, apperror.CodeIngestInProgress))

	release()
	release()
	again, err := repo.Claim(ctx, "abc")
	require.NoError(t, err)
	again()
}

func TestSummaryRepo(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	sys := location.NewSystem(time.Now().UTC())
	_, err := store.Locations().CreateIfAbsent(ctx, &sys)
	require.NoError(t, err)
	require.NoError(t, store.Locations().Create(ctx, newLocation("ALPHA")))
	require.NoError(t, store.Balances().CreateZero(ctx, location.SystemCode))
	require.NoError(t, store.Balances().CreateZero(ctx, "ALPHA"))

	for code, qty := range map[string]int64{location.SystemCode: -30, "ALPHA": 30} {
		b, err := store.Balances().Get(ctx, code)
		require.NoError(t, err)
		b.Quantity = qty
		require.NoError(t, store.Balances().Save(ctx, b))
	}
	require.NoError(t, store.Movements().Create(ctx, &ledger.Movement{
		FromLocation: location.SystemCode, ToLocation: "ALPHA", Quantity: 30, Status: ledger.StatusCompleted,
	}))

	s, err := store.Summary().Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(30), s.TotalPallets)
	assert.Equal(t, int64(-30), s.SystemBalance)
	assert.Equal(t, int64(1), s.LocationCount)
	assert.Equal(t, int64(1), s.MovementCount)
	assert.Equal(t, int64(0), s.InTransit)
}
