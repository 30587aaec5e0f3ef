package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

// DefaultLockTTL bounds how long a crashed holder can block a document
const DefaultLockTTL = 10 * time.Second

func documentLockName(id string) string {
	return "document:" + id
}

// documentLocker serialises mutations of one document across instances.
type documentLocker struct {
	lock   driven.DistributedLock
	ttl    time.Duration
	logger *slog.Logger
}

// with runs fn while holding the document's lock. A held lock fails fast
// with domain.ErrConflict instead of waiting. A nil lock runs fn directly.
func (l documentLocker) with(ctx context.Context, id string, fn func() error) error {
	if l.lock == nil {
		return fn()
	}

	name := documentLockName(id)
	acquired, err := l.lock.Acquire(ctx, name, l.ttl)
	if err != nil {
		return fmt.Errorf("lock document %s: %w", id, err)
	}
	if !acquired {
		return domain.ErrConflict
	}
	defer func() {
		// Release even when the request context is already cancelled.
		if err := l.lock.Release(context.WithoutCancel(ctx), name); err != nil {
			l.logger.Warn("failed to release document lock", "document_id", id, "error", err)
		}
	}()

	return fn()
}
