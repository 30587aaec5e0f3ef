package driven

import (
	"context"
	"time"
)

// DistributedLock serializes mutations of one document across API and
// worker processes. Names look like "document:{id}"; the sweeper uses
// "sweeper" so a single instance scans per cycle.
//
// Locks are non-blocking: a held lock makes Acquire return false and the
// caller reports a conflict instead of waiting.
type DistributedLock interface {
	// Acquire takes name for ttl. It returns false when another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release drops name. Releasing an expired or foreign lock is not an error.
	Release(ctx context.Context, name string) error

	// Extend pushes the expiry of a lock held by this instance.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	Ping(ctx context.Context) error
}
