package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/custodia-labs/docdash/internal/core/ports/driven"
	"github.com/custodia-labs/docdash/internal/tabular"
)

// Verify interface compliance
var _ driven.RowCache = (*RowCache)(nil)

const rowCachePrefix = "docdash:rows:"

// RowCache stores parsed tables as msgpack blobs with a Redis TTL.
type RowCache struct {
	client *redis.Client
}

// NewRowCache creates a Redis-backed row cache
func NewRowCache(client *redis.Client) *RowCache {
	return &RowCache{client: client}
}

func (c *RowCache) Get(ctx context.Context, documentID string) (*tabular.Table, error) {
	data, err := c.client.Get(ctx, rowCachePrefix+documentID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached rows: %w", err)
	}

	var table tabular.Table
	if err := msgpack.Unmarshal(data, &table); err != nil {
		// A corrupt entry is a miss; the caller reloads and overwrites it.
		return nil, nil
	}
	return &table, nil
}

// Set stores a table. A ttl of 0 keeps it until invalidated.
func (c *RowCache) Set(ctx context.Context, documentID string, table *tabular.Table, ttl time.Duration) error {
	data, err := msgpack.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	if err := c.client.Set(ctx, rowCachePrefix+documentID, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache rows: %w", err)
	}
	return nil
}

func (c *RowCache) Invalidate(ctx context.Context, documentID string) error {
	if err := c.client.Del(ctx, rowCachePrefix+documentID).Err(); err != nil {
		return fmt.Errorf("invalidate rows: %w", err)
	}
	return nil
}

func (c *RowCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
