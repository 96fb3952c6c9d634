package lock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
)

// PostgresLocker shares the cycle lock between replicas with a session level
// advisory lock. The lock lives on a dedicated connection until released.
type PostgresLocker struct {
	db  *sql.DB
	key int64
}

func NewPostgresLocker(db *sql.DB, name string) *PostgresLocker {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return &PostgresLocker{db: db, key: int64(h.Sum64())}
}

func (l *PostgresLocker) TryLock(ctx context.Context) (func(context.Context) error, bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("get connection for advisory lock: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, l.key).Scan(&acquired); err != nil {
		_ = conn.Close()
		return nil, false, fmt.Errorf("pg_try_advisory_lock: %w", err)
	}
	if !acquired {
		_ = conn.Close()
		return nil, false, nil
	}

	return func(ctx context.Context) error {
		defer conn.Close()
		var released bool
		if err := conn.QueryRowContext(ctx, `SELECT pg_advisory_unlock($1)`, l.key).Scan(&released); err != nil {
			return fmt.Errorf("pg_advisory_unlock: %w", err)
		}
		if !released {
			return ErrLockNotHeld
		}
		return nil
	}, true, nil
}
