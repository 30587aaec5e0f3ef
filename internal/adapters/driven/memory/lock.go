package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// Lock is a single-process implementation of DistributedLock.
// Locks expire after their TTL like the Redis implementation.
type Lock struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

// NewLock creates an in-memory lock
func NewLock() *Lock {
	return &Lock{
		locks: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, held := l.locks[name]; held && l.now().Before(expiry) {
		return false, nil
	}
	l.locks[name] = l.now().Add(ttl)
	return true, nil
}

func (l *Lock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, name)
	return nil
}

func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	expiry, held := l.locks[name]
	if !held || !l.now().Before(expiry) {
		return fmt.Errorf("lock %s not held", name)
	}
	l.locks[name] = l.now().Add(ttl)
	return nil
}

func (l *Lock) Ping(ctx context.Context) error {
	return nil
}
