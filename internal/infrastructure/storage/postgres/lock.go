package postgres

import (
	"context"
	"fmt"

	"palletledger/pkg/logger"
)

const (
	tryAdvisoryLockSQL = "SELECT pg_try_advisory_lock(hashtextextended($1, 0))"
	advisoryUnlockSQL  = "SELECT pg_advisory_unlock(hashtextextended($1, 0))"
)

// TryAdvisoryLock takes a session-level advisory lock on key using a dedicated
// pool connection, so the lock outlives any transaction started meanwhile.
// ok is false when another session holds the lock.
func (m *TxManager) TryAdvisoryLock(ctx context.Context, key string) (release func(), ok bool, err error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}

	return func() {
		if _, err := conn.Exec(context.Background(), advisoryUnlockSQL, key); err != nil {
			logger.Warn(ctx, "advisory unlock failed, dropping connection", "key", key, "error", err)
			// Closing the session releases every lock it holds.
			_ = conn.Conn().Close(context.Background())
		}
		conn.Release()
	}, true, nil
}
