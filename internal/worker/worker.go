package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

// DocumentAnalyzer counts rows and pages of uploaded documents.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, documentID string) error
	MarkFailed(ctx context.Context, documentID, reason string) error
}

// Background is a periodic job that runs alongside the processors.
type Background interface {
	Start(ctx context.Context) error
	Stop()
}

// Worker processes tasks from the task queue.
// It runs the document analyzer for each analyze_document task.
type Worker struct {
	taskQueue  driven.TaskQueue
	analyzer   DocumentAnalyzer
	background Background
	logger     *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Analyzer       DocumentAnalyzer
	Background     Background // Optional: e.g. the stuck-document sweeper
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent task processors
	DequeueTimeout int // Seconds to wait for a task before checking again
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		analyzer:       cfg.Analyzer,
		background:     cfg.Background,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	if w.background != nil {
		if err := w.background.Start(ctx); err != nil {
			w.logger.Error("failed to start background job", "error", err)
		}
	}

	// Start worker goroutines
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	// Wait for all workers to finish
	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	if w.background != nil {
		w.background.Stop()
	}

	// Wait for workers to finish
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		// Dequeue a task with timeout
		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			// Back off on error
			select {
			case <-time.After(time.Second):
			case <-w.stopCh:
			case <-ctx.Done():
			}
			continue
		}

		if task == nil {
			// No task available, continue
			continue
		}

		// Process the task
		w.processTask(ctx, task, logger)
	}
}

// processTask processes a single task.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type, "attempt", task.Attempts)
	logger.Info("processing task")

	startTime := time.Now()
	var err error

	switch task.Type {
	case domain.TaskTypeAnalyzeDocument:
		err = w.handleAnalyzeDocument(ctx, task)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	duration := time.Since(startTime)

	if err != nil {
		logger.Error("task failed",
			"duration", duration,
			"error", err,
		)

		if task.IsLastAttempt() {
			w.markDocumentFailed(ctx, task, err, logger)
		}

		// Nack the task so it can be retried
		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", duration)

	// Ack the task
	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// handleAnalyzeDocument handles an analyze_document task.
// Not-found is terminal: either the document was deleted since upload or
// its file is gone, and retrying changes neither.
func (w *Worker) handleAnalyzeDocument(ctx context.Context, task *domain.Task) error {
	documentID := task.DocumentID()
	if documentID == "" {
		return fmt.Errorf("document_id not found in task payload")
	}

	err := w.analyzer.Analyze(ctx, documentID)
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	err = w.analyzer.MarkFailed(ctx, documentID, "document file is missing")
	switch {
	case errors.Is(err, domain.ErrNotFound):
		w.logger.Info("document deleted before analysis", "document_id", documentID)
		return nil
	case err != nil:
		return err
	default:
		w.logger.Warn("document file is missing", "document_id", documentID)
		return nil
	}
}

func (w *Worker) markDocumentFailed(ctx context.Context, task *domain.Task, cause error, logger *slog.Logger) {
	documentID := task.DocumentID()
	if documentID == "" {
		return
	}
	if err := w.analyzer.MarkFailed(ctx, documentID, cause.Error()); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Error("failed to mark document failed", "document_id", documentID, "error", err)
	}
}

// Health returns health status of the worker.
type Health struct {
	Running     bool               `json:"running"`
	QueueHealth bool               `json:"queue_health"`
	Queue       *driven.QueueStats `json:"queue,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	// Check queue health
	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
		return health
	}
	health.QueueHealth = true

	stats, err := w.taskQueue.Stats(ctx)
	if err != nil {
		health.Error = err.Error()
		return health
	}
	health.Queue = stats

	return health
}
