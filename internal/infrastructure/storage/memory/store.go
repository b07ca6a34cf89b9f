// Package memory provides an in-process storage backend with the same
// transactional guarantees as the PostgreSQL one: a transaction holds the store
// exclusively and rolls back to a snapshot on error, and savepoints roll back to a
// nested snapshot. Used by the memory driver and by tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"palletledger/internal/domain/audit"
	"palletledger/internal/domain/ingest"
	"palletledger/internal/domain/ledger"
	"palletledger/internal/domain/location"
)

type state struct {
	locations map[string]location.Location
	balances  map[string]ledger.Balance
	movements []ledger.Movement
	audit     []audit.Entry
	reports   []ingest.Report
	links     map[int64][]int64

	balanceSeq  int64
	movementSeq int64
	auditSeq    int64
	reportSeq   int64
}

func newState() *state {
	return &state{
		locations: make(map[string]location.Location),
		balances:  make(map[string]ledger.Balance),
		links:     make(map[int64][]int64),
	}
}

func (s *state) clone() *state {
	c := *s
	c.locations = maps.Clone(s.locations)
	c.balances = maps.Clone(s.balances)
	c.movements = slices.Clone(s.movements)
	c.audit = slices.Clone(s.audit)
	c.reports = slices.Clone(s.reports)
	c.links = make(map[int64][]int64, len(s.links))
	for k, v := range s.links {
		c.links[k] = slices.Clone(v)
	}
	return &c
}

// Store is the shared in-memory database.
type Store struct {
	mu sync.Mutex
	st *state

	// claims live outside the snapshotted state so rollbacks never drop them.
	claimMu sync.Mutex
	claims  map[string]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState(), claims: make(map[string]struct{})}
}

// txKey marks a context that runs inside a transaction of a given store.
type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// view runs fn against the current state. Outside a transaction it takes the lock;
// inside one the lock is already held by the transaction.
func (s *Store) view(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// Locations returns the location repository.
func (s *Store) Locations() *LocationRepo { return &LocationRepo{store: s} }

// Balances returns the balance repository.
func (s *Store) Balances() *BalanceRepo { return &BalanceRepo{store: s} }

// Movements returns the movement repository.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{store: s} }

// Summary returns the summary repository.
func (s *Store) Summary() *SummaryRepo { return &SummaryRepo{store: s} }

// Audit returns the audit repository.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{store: s} }

// Reports returns the reconciliation report repository.
func (s *Store) Reports() *ReportRepo { return &ReportRepo{store: s} }

// TxManager returns the transaction manager of the store.
func (s *Store) TxManager() *TxManager { return &TxManager{store: s} }
