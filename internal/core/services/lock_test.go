package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven/mocks"
)

func TestDocumentLocker_RunsAndReleases(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	l := documentLocker{lock: lock, ttl: time.Second, logger: discardLogger()}

	called := false
	err := l.with(context.Background(), "doc-1", func() error {
		called = true
		assert.True(t, lock.IsHeld("document:doc-1"))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, lock.IsHeld("document:doc-1"))
	assert.Equal(t, []string{"document:doc-1"}, lock.Released)
}

func TestDocumentLocker_HeldReturnsConflict(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	lock.SetLockHeld("document:doc-1", time.Minute)
	l := documentLocker{lock: lock, ttl: time.Second, logger: discardLogger()}

	err := l.with(context.Background(), "doc-1", func() error {
		t.Fatal("fn must not run while the lock is held")
		return nil
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDocumentLocker_AcquireError(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	lock.AcquireFn = func(string, time.Duration) (bool, error) {
		return false, errors.New("redis down")
	}
	l := documentLocker{lock: lock, ttl: time.Second, logger: discardLogger()}

	err := l.with(context.Background(), "doc-1", func() error { return nil })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.NotErrorIs(t, err, domain.ErrConflict)
}

func TestDocumentLocker_ReleasesOnError(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	l := documentLocker{lock: lock, ttl: time.Second, logger: discardLogger()}
	boom := errors.New("boom")

	err := l.with(context.Background(), "doc-1", func() error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.False(t, lock.IsHeld("document:doc-1"))
}

func TestDocumentLocker_NilLock(t *testing.T) {
	l := documentLocker{logger: discardLogger()}

	called := false
	err := l.with(context.Background(), "doc-1", func() error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}
