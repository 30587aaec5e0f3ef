package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockDistributedLock is an in-memory DistributedLock for testing.
// Hooks override the built-in behaviour when set.
type MockDistributedLock struct {
	mu      sync.Mutex
	expires map[string]time.Time

	AcquireFn func(name string, ttl time.Duration) (bool, error)
	ReleaseFn func(name string) error
	PingFn    func() error

	// Acquired and Released record lock names in call order
	Acquired []string
	Released []string
}

// NewMockDistributedLock creates a new mock distributed lock.
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{
		expires: make(map[string]time.Time),
	}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, held := m.expires[name]; held && time.Now().Before(exp) {
		return false, nil
	}
	m.expires[name] = time.Now().Add(ttl)
	m.Acquired = append(m.Acquired, name)
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	if m.ReleaseFn != nil {
		return m.ReleaseFn(name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expires, name)
	m.Released = append(m.Released, name)
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, held := m.expires[name]
	if !held || time.Now().After(exp) {
		return fmt.Errorf("lock %s not held", name)
	}
	m.expires[name] = time.Now().Add(ttl)
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// IsHeld reports whether a lock is currently held (for test assertions).
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, held := m.expires[name]
	return held && time.Now().Before(exp)
}

// SetLockHeld simulates another instance holding a lock (for test setup).
func (m *MockDistributedLock) SetLockHeld(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires[name] = time.Now().Add(ttl)
}
