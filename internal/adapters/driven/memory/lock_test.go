package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock(t *testing.T) {
	ctx := context.Background()
	lock := NewLock()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lock.now = func() time.Time { return now }

	ok, err := lock.Acquire(ctx, "document:1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "document:1", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "expected lock to be held")

	ok, _ = lock.Acquire(ctx, "document:2", 10*time.Second)
	assert.True(t, ok, "expected independent lock names")

	require.NoError(t, lock.Extend(ctx, "document:1", time.Minute))
	now = now.Add(30 * time.Second)
	ok, _ = lock.Acquire(ctx, "document:1", time.Second)
	assert.False(t, ok, "expected extended lock to still be held")

	require.NoError(t, lock.Release(ctx, "document:1"))
	ok, _ = lock.Acquire(ctx, "document:1", time.Second)
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = lock.Acquire(ctx, "document:1", time.Second)
	assert.True(t, ok, "expected expired lock to be reacquired")

	assert.Error(t, lock.Extend(ctx, "missing", time.Second))
}
