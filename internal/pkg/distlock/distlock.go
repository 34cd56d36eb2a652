// Package distlock guards the automation tick so that horizontally scaled
// deployments run exactly one tick loop at a time. Redis is the preferred
// backend; deployments without Redis fall back to a PostgreSQL advisory
// lock on the same connection pool the engine already holds.
package distlock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a best-effort distributed mutex. A false Acquire means another
// instance holds the tick; callers skip the pass rather than wait.
// Implementations are for single-goroutine use; concurrent use requires
// separate instances.
type Lock interface {
	// Acquire tries to take the lock without blocking. True on success.
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock back if this instance still owns it.
	Release(ctx context.Context) error
}

// New picks the strongest available backend: Redis when a client is
// configured, the database's advisory locks otherwise.
func New(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) Lock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewAdvisoryLock(db, key)
}

// AdvisoryLock implements Lock on pg_try_advisory_lock/pg_advisory_unlock.
// Advisory locks are session-scoped, so the lock pins one connection out
// of the pool for as long as it is held: Acquire takes the lock on a
// dedicated *sql.Conn and Release unlocks on that same conn before
// returning it. Unlocking through the pooled *sql.DB would land on an
// arbitrary session and silently leave the lock held. A crashed holder
// releases the tick as soon as its connection drops, much like a Redis
// TTL expiring.
type AdvisoryLock struct {
	db     *sql.DB
	lockID int64
	conn   *sql.Conn
}

// NewAdvisoryLock derives a deterministic 64-bit lock id from key.
func NewAdvisoryLock(db *sql.DB, key string) *AdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &AdvisoryLock{db: db, lockID: int64(h.Sum64())}
}

// Acquire tries the advisory lock on a dedicated connection. The
// connection stays pinned until Release; a failed attempt returns it to
// the pool immediately. Non-blocking.
func (l *AdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	if l.conn != nil {
		return false, fmt.Errorf("advisory lock %d already held by this instance", l.lockID)
	}
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}
	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

// Release unlocks on the session that took the lock and returns its
// connection to the pool. A no-op when the lock is not held.
func (l *AdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	conn := l.conn
	l.conn = nil

	var released bool
	err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID).Scan(&released)
	if cerr := conn.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if !released {
		return fmt.Errorf("advisory lock %d was not held by its session", l.lockID)
	}
	return nil
}
