package postgresql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
)

// advisoryRunLocker holds a session-level advisory lock on a dedicated pool
// connection for as long as the run lasts, so it spans every API instance.
type advisoryRunLocker struct {
	db *database.DB
}

func NewAdvisoryRunLocker(db *database.DB) payroll.RunLocker {
	return &advisoryRunLocker{db: db}
}

func (l *advisoryRunLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	conn, err := l.db.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection for advisory lock: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtextextended($1, 0))`, key).Scan(&locked); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to take advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		unlockCtx := context.WithoutCancel(ctx)
		if _, err := conn.Exec(unlockCtx, `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, key); err != nil {
			// Closing the session is the only other way to drop a session lock
			slog.Error("Failed to release advisory lock, closing connection", "key", key, "error", err)
			_ = conn.Conn().Close(unlockCtx)
		}
		conn.Release()
	}

	return unlock, true, nil
}
