package memory

import (
	"context"

	"palletledger/internal/core/tx"
)

var _ tx.Manager = (*TxManager)(nil)

// TxManager runs transactions against a Store. Transactions are serialized.
type TxManager struct {
	store *Store
}

// RunInTransaction executes fn with exclusive access to the store.
// Nested calls reuse the outer transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if m.store.inTx(ctx) {
		return fn(ctx)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snapshot := m.store.st.clone()
	defer func() {
		if p := recover(); p != nil {
			m.store.st = snapshot
			panic(p)
		}
		if err != nil {
			m.store.st = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, m.store))
}

// RunInSavepoint executes fn so that its failure discards only its own writes.
func (m *TxManager) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if !m.store.inTx(ctx) {
		return m.RunInTransaction(ctx, fn)
	}

	snapshot := m.store.st.clone()
	defer func() {
		if p := recover(); p != nil {
			m.store.st = snapshot
			panic(p)
		}
		if err != nil {
			m.store.st = snapshot
		}
	}()

	return fn(ctx)
}
