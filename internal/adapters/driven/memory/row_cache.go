package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/docdash/internal/core/ports/driven"
	"github.com/custodia-labs/docdash/internal/tabular"
)

// Verify interface compliance
var _ driven.RowCache = (*RowCache)(nil)

type cacheEntry struct {
	table  *tabular.Table
	expiry time.Time
}

// RowCache is a TTL map of parsed tables. Expired entries are dropped on read.
type RowCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewRowCache creates an empty cache
func NewRowCache() *RowCache {
	return &RowCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Tables are treated as immutable once cached, so Get returns the stored pointer.
func (c *RowCache) Get(ctx context.Context, documentID string) (*tabular.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[documentID]
	if !ok {
		return nil, nil
	}
	if !entry.expiry.IsZero() && c.now().After(entry.expiry) {
		delete(c.entries, documentID)
		return nil, nil
	}
	return entry.table, nil
}

// Set stores a table. A ttl of 0 or less never expires.
func (c *RowCache) Set(ctx context.Context, documentID string, table *tabular.Table, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{table: table}
	if ttl > 0 {
		entry.expiry = c.now().Add(ttl)
	}
	c.entries[documentID] = entry
	return nil
}

func (c *RowCache) Invalidate(ctx context.Context, documentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, documentID)
	return nil
}

func (c *RowCache) Ping(ctx context.Context) error {
	return nil
}
