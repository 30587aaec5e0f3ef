package driven

import (
	"context"

	"github.com/custodia-labs/docdash/internal/core/domain"
)

// TaskQueue carries analyze_document tasks from the API to workers.
// Redis streams are preferred; the tasks table in PostgreSQL is the fallback.
// With no queue configured uploads are analyzed inline.
type TaskQueue interface {
	// Enqueue schedules task. It becomes visible at task.ScheduledFor.
	Enqueue(ctx context.Context, task *domain.Task) error

	// DequeueWithTimeout blocks up to timeout seconds for the next due task.
	// It returns nil, nil when nothing arrived.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	// Ack marks a task completed.
	Ack(ctx context.Context, taskID string) error

	// Nack records reason and reschedules the task with backoff, or marks it
	// failed once attempts are exhausted.
	Nack(ctx context.Context, taskID string, reason string) error

	// GetTask returns a task by ID, or domain.ErrNotFound.
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	Stats(ctx context.Context) (*QueueStats, error)

	Ping(ctx context.Context) error

	Close() error
}

// QueueStats is a snapshot of task counts by state
type QueueStats struct {
	PendingCount    int64 `json:"pending_count"`
	ProcessingCount int64 `json:"processing_count"`
	CompletedCount  int64 `json:"completed_count"`
	FailedCount     int64 `json:"failed_count"`

	// OldestPendingAge is in seconds
	OldestPendingAge int64 `json:"oldest_pending_age"`
}
