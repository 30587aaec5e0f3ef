package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docdash/internal/tabular"
)

// RowCache keeps parsed tables so repeated questions skip the file read.
// Implementations can use Redis (preferred) or process memory.
type RowCache interface {
	// Get returns the cached table, or nil, nil on a miss
	Get(ctx context.Context, documentID string) (*tabular.Table, error)

	// Set stores a table for ttl
	Set(ctx context.Context, documentID string, table *tabular.Table, ttl time.Duration) error

	// Invalidate drops a cached table
	Invalidate(ctx context.Context, documentID string) error

	// Ping checks if the cache backend is healthy
	Ping(ctx context.Context) error
}
