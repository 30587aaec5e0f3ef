package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements DistributedLock using PostgreSQL session advisory locks.
//
// Advisory locks belong to a database session, so each held lock pins its own
// connection from the pool; unlocking on a different pooled connection would
// be a silent no-op. The TTL is emulated with a timer that unlocks and returns
// the connection. A lost connection releases the lock server-side.
//
// The mutex only guards the held map. Names are reserved before a connection
// is taken from the pool so a waiting Acquire never blocks Release or expiry.
type AdvisoryLock struct {
	db      *DB
	timeout time.Duration

	mu   sync.Mutex
	held map[string]*heldLock
}

// heldLock is a held or reserved lock. conn is nil while Acquire is running.
type heldLock struct {
	conn  *sql.Conn
	timer *time.Timer
}

// DefaultAcquireTimeout bounds the wait for a pooled connection
const DefaultAcquireTimeout = 5 * time.Second

// NewAdvisoryLock creates a PostgreSQL advisory lock adapter.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{
		db:      db,
		timeout: DefaultAcquireTimeout,
		held:    make(map[string]*heldLock),
	}
}

// hashLockName maps a lock name onto the bigint advisory lock key space.
func hashLockName(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("docdash:lock:" + name))
	return int64(h.Sum64())
}

// Acquire tries the lock without blocking on other holders. It waits at most
// the acquire timeout for a pooled connection.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	h := &heldLock{}

	l.mu.Lock()
	if _, ok := l.held[name]; ok {
		l.mu.Unlock()
		return false, nil
	}
	l.held[name] = h
	l.mu.Unlock()

	conn, err := l.tryLock(ctx, name)
	if conn == nil {
		l.unreserve(name, h)
		return false, err
	}

	l.mu.Lock()
	h.conn = conn
	if ttl > 0 {
		h.timer = time.AfterFunc(ttl, func() { l.expire(name, h) })
	}
	l.mu.Unlock()
	return true, nil
}

// tryLock returns the connection now holding the advisory lock, or nil when
// the lock is taken elsewhere or the attempt failed.
func (l *AdvisoryLock) tryLock(ctx context.Context, name string) (*sql.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", hashLockName(name)).Scan(&acquired); err != nil {
		conn.Close()
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !acquired {
		conn.Close()
		return nil, nil
	}
	return conn, nil
}

func (l *AdvisoryLock) unreserve(name string, h *heldLock) {
	l.mu.Lock()
	if l.held[name] == h {
		delete(l.held, name)
	}
	l.mu.Unlock()
}

func (l *AdvisoryLock) expire(name string, h *heldLock) {
	l.mu.Lock()
	if l.held[name] != h {
		l.mu.Unlock()
		return
	}
	delete(l.held, name)
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = unlock(ctx, h.conn, name)
}

// Release unlocks a lock held by this process. Unknown names and names
// still being acquired are ignored.
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	h, ok := l.held[name]
	if !ok || h.conn == nil {
		l.mu.Unlock()
		return nil
	}
	delete(l.held, name)
	if h.timer != nil {
		h.timer.Stop()
	}
	conn := h.conn
	l.mu.Unlock()

	return unlock(ctx, conn, name)
}

func unlock(ctx context.Context, conn *sql.Conn, name string) error {
	defer conn.Close()

	var released bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", hashLockName(name)).Scan(&released); err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Extend resets the emulated TTL of a held lock.
func (l *AdvisoryLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.held[name]
	if !ok || h.conn == nil {
		return fmt.Errorf("lock %s not held by this instance", name)
	}
	if h.timer != nil {
		h.timer.Reset(ttl)
	}
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
