package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

const (
	taskStream     = "docdash:tasks"
	taskGroup      = "docdash:workers"
	scheduledTasks = "docdash:scheduled"
	taskKeyPrefix  = "docdash:task:"
	completedKey   = "docdash:tasks:completed"
	failedKey      = "docdash:tasks:failed"

	consumerPrefix = "worker-"

	// Pending entries idle this long are claimed by another consumer
	claimTimeout = 5 * time.Minute

	// Task records outlive processing so status can still be read
	taskTTL = 24 * time.Hour
)

// Verify interface compliance
var _ driven.TaskQueue = (*Queue)(nil)

// Queue implements TaskQueue using Redis Streams with a consumer group.
// Task bodies live in plain keys; the stream carries only IDs. Delayed
// tasks (retries) wait in a sorted set scored by their due time.
type Queue struct {
	client       *redis.Client
	consumerName string
}

// NewQueue creates a Redis-backed task queue.
// The consumerName should be unique per worker instance (e.g., hostname + PID).
func NewQueue(ctx context.Context, client *redis.Client, consumerName string) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if consumerName == "" {
		consumerName = consumerPrefix + strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	err := client.XGroupCreateMkStream(ctx, taskStream, taskGroup, "0").Err()
	if err != nil && !isGroupExistsError(err) {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return &Queue{client: client, consumerName: consumerName}, nil
}

func streamValues(task *domain.Task) map[string]interface{} {
	return map[string]interface{}{
		"task_id":  task.ID,
		"type":     string(task.Type),
		"priority": task.Priority,
	}
}

func (q *Queue) saveTask(ctx context.Context, pipe redis.Pipeliner, task *domain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.ID, err)
	}
	pipe.Set(ctx, taskKeyPrefix+task.ID, data, taskTTL)
	return nil
}

// Enqueue stores the task and either streams it now or schedules it.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return errors.New("task is required")
	}

	pipe := q.client.TxPipeline()
	if err := q.saveTask(ctx, pipe, task); err != nil {
		return err
	}

	if task.ScheduledFor.After(time.Now()) {
		pipe.ZAdd(ctx, scheduledTasks, redis.Z{
			Score:  float64(task.ScheduledFor.Unix()),
			Member: task.ID,
		})
	} else {
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: taskStream, Values: streamValues(task)})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// DequeueWithTimeout retrieves the next available task, waiting up to timeout seconds.
// Due scheduled tasks are promoted first, then abandoned entries are reclaimed.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	// Best effort; a failed promotion is retried on the next call.
	_ = q.promoteScheduledTasks(ctx)

	if task, err := q.claimAbandonedTask(ctx); err == nil && task != nil {
		return task, nil
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    taskGroup,
		Consumer: q.consumerName,
		Streams:  []string{taskStream, ">"},
		Count:    1,
		Block:    time.Duration(timeout) * time.Second,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("read task stream: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	return q.startTask(ctx, streams[0].Messages[0])
}

// startTask loads the task behind a stream message and marks it processing.
// Messages whose task record is gone are dropped.
func (q *Queue) startTask(ctx context.Context, msg redis.XMessage) (*domain.Task, error) {
	taskID, _ := msg.Values["task_id"].(string)

	var task *domain.Task
	if taskID != "" {
		var err error
		task, err = q.GetTask(ctx, taskID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if task == nil {
		q.client.XAck(ctx, taskStream, taskGroup, msg.ID)
		q.client.XDel(ctx, taskStream, msg.ID)
		return nil, nil
	}

	task.MarkProcessing()

	pipe := q.client.TxPipeline()
	if err := q.saveTask(ctx, pipe, task); err != nil {
		return nil, err
	}
	pipe.Set(ctx, taskKeyPrefix+task.ID+":msg", msg.ID, taskTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("mark task processing: %w", err)
	}
	return task, nil
}

// settle acknowledges the stream entry of a task and applies update to its record.
func (q *Queue) settle(ctx context.Context, taskID string, update func(redis.Pipeliner, *domain.Task) error) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	msgID, err := q.client.Get(ctx, taskKeyPrefix+taskID+":msg").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("get message id: %w", err)
	}

	pipe := q.client.TxPipeline()
	if msgID != "" {
		pipe.XAck(ctx, taskStream, taskGroup, msgID)
		pipe.XDel(ctx, taskStream, msgID)
	}
	if err := update(pipe, task); err != nil {
		return err
	}
	pipe.Del(ctx, taskKeyPrefix+taskID+":msg")

	_, err = pipe.Exec(ctx)
	return err
}

// Ack acknowledges successful completion of a task.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	err := q.settle(ctx, taskID, func(pipe redis.Pipeliner, task *domain.Task) error {
		task.MarkCompleted()
		pipe.Incr(ctx, completedKey)
		return q.saveTask(ctx, pipe, task)
	})
	if err != nil {
		return fmt.Errorf("ack task: %w", err)
	}
	return nil
}

// Nack schedules a retry with backoff, or fails the task once attempts run out.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	err := q.settle(ctx, taskID, func(pipe redis.Pipeliner, task *domain.Task) error {
		if task.CanRetry() {
			task.Retry(reason)
			pipe.ZAdd(ctx, scheduledTasks, redis.Z{
				Score:  float64(task.ScheduledFor.Unix()),
				Member: task.ID,
			})
		} else {
			task.MarkFailed(reason)
			pipe.Incr(ctx, failedKey)
		}
		return q.saveTask(ctx, pipe, task)
	})
	if err != nil {
		return fmt.Errorf("nack task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID. Unknown or expired tasks yield domain.ErrNotFound.
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	data, err := q.client.Get(ctx, taskKeyPrefix+taskID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &task, nil
}

// Stats returns queue statistics. Completed and failed totals are counters,
// so they survive the expiry of individual task records.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	pipe := q.client.Pipeline()
	streamLen := pipe.XLen(ctx, taskStream)
	scheduled := pipe.ZCard(ctx, scheduledTasks)
	pending := pipe.XPending(ctx, taskStream, taskGroup)
	completed := pipe.Get(ctx, completedKey)
	failed := pipe.Get(ctx, failedKey)
	_, _ = pipe.Exec(ctx)

	if err := streamLen.Err(); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("queue length: %w", err)
	}

	stats := &driven.QueueStats{}
	processing := int64(0)
	if p, err := pending.Result(); err == nil {
		processing = p.Count
	}

	// Stream entries are deleted on ack, so the stream holds pending plus in-flight.
	stats.ProcessingCount = processing
	stats.PendingCount = streamLen.Val() - processing + scheduled.Val()
	stats.CompletedCount, _ = completed.Int64()
	stats.FailedCount, _ = failed.Int64()
	return stats, nil
}

// Ping checks if the queue backend is healthy.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close is a no-op; the Redis client is shared.
func (q *Queue) Close() error {
	return nil
}

// promoteScheduledTasks moves due scheduled tasks onto the stream.
func (q *Queue) promoteScheduledTasks(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, scheduledTasks, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(time.Now().Unix(), 10),
	}).Result()
	if err != nil || len(due) == 0 {
		return err
	}

	pipe := q.client.TxPipeline()
	for _, taskID := range due {
		pipe.ZRem(ctx, scheduledTasks, taskID)

		task, err := q.GetTask(ctx, taskID)
		if err != nil {
			continue
		}
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: taskStream, Values: streamValues(task)})
	}

	_, err = pipe.Exec(ctx)
	return err
}

// claimAbandonedTask takes over an entry another consumer read but never settled.
func (q *Queue) claimAbandonedTask(ctx context.Context) (*domain.Task, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: taskStream,
		Group:  taskGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
		Idle:   claimTimeout,
	}).Result()
	if err != nil {
		return nil, err
	}

	for _, p := range pending {
		claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   taskStream,
			Group:    taskGroup,
			Consumer: q.consumerName,
			MinIdle:  claimTimeout,
			Messages: []string{p.ID},
		}).Result()
		if err != nil || len(claimed) == 0 {
			continue
		}

		task, err := q.startTask(ctx, claimed[0])
		if err != nil {
			continue
		}
		return task, nil
	}

	return nil, nil
}

func isGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
