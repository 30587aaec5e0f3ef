package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/docdash/internal/tabular"
)

// MockRowCache is a map-backed RowCache that ignores TTLs
type MockRowCache struct {
	mu     sync.Mutex
	tables map[string]*tabular.Table

	GetErr error
	SetErr error

	Invalidated []string
}

// NewMockRowCache creates a new MockRowCache
func NewMockRowCache() *MockRowCache {
	return &MockRowCache{tables: make(map[string]*tabular.Table)}
}

func (m *MockRowCache) Get(ctx context.Context, documentID string) (*tabular.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.tables[documentID], nil
}

func (m *MockRowCache) Set(ctx context.Context, documentID string, table *tabular.Table, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.tables[documentID] = table
	return nil
}

func (m *MockRowCache) Invalidate(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, documentID)
	m.Invalidated = append(m.Invalidated, documentID)
	return nil
}

func (m *MockRowCache) Ping(ctx context.Context) error {
	return nil
}
