package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockAnalyzer implements DocumentAnalyzer for testing
type mockAnalyzer struct {
	mu         sync.Mutex
	analyzeFn  func(id string) error
	markFn     func(id, reason string) error
	analyzed   []string
	markFailed map[string]string
}

func newMockAnalyzer() *mockAnalyzer {
	return &mockAnalyzer{markFailed: make(map[string]string)}
}

func (m *mockAnalyzer) Analyze(ctx context.Context, documentID string) error {
	m.mu.Lock()
	m.analyzed = append(m.analyzed, documentID)
	fn := m.analyzeFn
	m.mu.Unlock()
	if fn != nil {
		return fn(documentID)
	}
	return nil
}

func (m *mockAnalyzer) MarkFailed(ctx context.Context, documentID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markFn != nil {
		return m.markFn(documentID, reason)
	}
	m.markFailed[documentID] = reason
	return nil
}

func (m *mockAnalyzer) analyzedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.analyzed)
}

// mockBackground records Start/Stop calls
type mockBackground struct {
	started, stopped int
}

func (b *mockBackground) Start(ctx context.Context) error { b.started++; return nil }
func (b *mockBackground) Stop()                           { b.stopped++ }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWorker(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analyzer := newMockAnalyzer()

	w := NewWorker(WorkerConfig{
		TaskQueue:      queue,
		Analyzer:       analyzer,
		Concurrency:    4,
		DequeueTimeout: 10,
	})

	if w.concurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 10 {
		t.Errorf("expected dequeue timeout 10, got %d", w.dequeueTimeout)
	}
	if w.logger == nil {
		t.Error("expected default logger")
	}
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: mocks.NewMockTaskQueue()})

	if w.concurrency != 1 {
		t.Errorf("expected default concurrency 1, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 5 {
		t.Errorf("expected default dequeue timeout 5, got %d", w.dequeueTimeout)
	}
}

func TestWorker_StartStop(t *testing.T) {
	background := &mockBackground{}
	w := NewWorker(WorkerConfig{
		TaskQueue:   mocks.NewMockTaskQueue(),
		Analyzer:    newMockAnalyzer(),
		Background:  background,
		Logger:      quietLogger(),
		Concurrency: 2,
	})

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !w.Health(ctx).Running {
		t.Error("expected worker to be running")
	}

	// Starting twice is a no-op
	if err := w.Start(ctx); err != nil {
		t.Errorf("second start should not error: %v", err)
	}

	w.Stop()
	if w.Health(ctx).Running {
		t.Error("expected worker to be stopped")
	}
	w.Stop()

	if background.started != 1 || background.stopped != 1 {
		t.Errorf("expected background started and stopped once, got %d/%d", background.started, background.stopped)
	}
}

func TestWorker_Health_QueueStats(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	ctx := context.Background()
	if err := queue.Enqueue(ctx, domain.NewAnalyzeDocumentTask("doc-1")); err != nil {
		t.Fatal(err)
	}

	w := NewWorker(WorkerConfig{TaskQueue: queue})

	health := w.Health(ctx)
	if !health.QueueHealth {
		t.Fatalf("expected healthy queue, got error %q", health.Error)
	}
	if health.Queue == nil || health.Queue.PendingCount != 1 {
		t.Errorf("expected one pending task, got %+v", health.Queue)
	}
}

func TestWorker_Health_QueueError(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	queue.PingErr = errors.New("connection failed")

	w := NewWorker(WorkerConfig{TaskQueue: queue})

	health := w.Health(context.Background())
	if health.QueueHealth {
		t.Error("expected queue to be unhealthy")
	}
	if health.Error != "connection failed" {
		t.Errorf("expected error message, got %q", health.Error)
	}
}

func TestWorker_ProcessTask_Analyze(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analyzer := newMockAnalyzer()
	w := NewWorker(WorkerConfig{TaskQueue: queue, Analyzer: analyzer, Logger: quietLogger()})

	task := domain.NewAnalyzeDocumentTask("doc-1")
	task.MarkProcessing()
	w.processTask(context.Background(), task, w.logger)

	if len(analyzer.analyzed) != 1 || analyzer.analyzed[0] != "doc-1" {
		t.Errorf("expected doc-1 analyzed, got %v", analyzer.analyzed)
	}
	if len(queue.Acked) != 1 || queue.Acked[0] != task.ID {
		t.Errorf("expected task acked, got %v", queue.Acked)
	}
	if len(queue.Nacked) != 0 {
		t.Errorf("expected no nacks, got %v", queue.Nacked)
	}
}

func TestWorker_ProcessTask_UnknownType(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	w := NewWorker(WorkerConfig{TaskQueue: queue, Analyzer: newMockAnalyzer(), Logger: quietLogger()})

	task := domain.NewTask(domain.TaskType("unknown_type"), nil)
	task.MarkProcessing()
	w.processTask(context.Background(), task, w.logger)

	if len(queue.Nacked) != 1 {
		t.Errorf("expected 1 nack for unknown type, got %d", len(queue.Nacked))
	}
}

func TestWorker_ProcessTask_MissingDocumentID(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analyzer := newMockAnalyzer()
	w := NewWorker(WorkerConfig{TaskQueue: queue, Analyzer: analyzer, Logger: quietLogger()})

	task := domain.NewTask(domain.TaskTypeAnalyzeDocument, map[string]string{})
	task.MarkProcessing()
	w.processTask(context.Background(), task, w.logger)

	if len(queue.Nacked) != 1 {
		t.Errorf("expected 1 nack, got %d", len(queue.Nacked))
	}
	if len(analyzer.analyzed) != 0 {
		t.Error("analyzer should not run without a document id")
	}
}

func TestWorker_ProcessTask_RetryableFailure(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analyzer := newMockAnalyzer()
	analyzer.analyzeFn = func(string) error { return domain.ErrConflict }
	w := NewWorker(WorkerConfig{TaskQueue: queue, Analyzer: analyzer, Logger: quietLogger()})

	task := domain.NewAnalyzeDocumentTask("doc-1")
	task.MarkProcessing()
	w.processTask(context.Background(), task, w.logger)

	if len(queue.Nacked) != 1 {
		t.Errorf("expected 1 nack, got %d", len(queue.Nacked))
	}
	if _, marked := analyzer.markFailed["doc-1"]; marked {
		t.Error("document must not be marked failed before the last attempt")
	}
}

func TestWorker_ProcessTask_LastAttemptMarksFailed(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analyzer := newMockAnalyzer()
	analyzer.analyzeFn = func(string) error { return errors.New("disk error") }
	w := NewWorker(WorkerConfig{TaskQueue: queue, Analyzer: analyzer, Logger: quietLogger()})

	task := domain.NewAnalyzeDocumentTask("doc-1")
	task.Attempts = task.MaxAttempts - 1
	task.MarkProcessing()
	w.processTask(context.Background(), task, w.logger)

	if reason := analyzer.markFailed["doc-1"]; reason != "disk error" {
		t.Errorf("expected document marked failed with cause, got %q", reason)
	}
	if len(queue.Nacked) != 1 {
		t.Errorf("expected 1 nack, got %d", len(queue.Nacked))
	}
}

func TestWorker_ProcessTask_DeletedDocument(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analyzer := newMockAnalyzer()
	analyzer.analyzeFn = func(string) error { return domain.ErrNotFound }
	analyzer.markFn = func(string, string) error { return domain.ErrNotFound }
	w := NewWorker(WorkerConfig{TaskQueue: queue, Analyzer: analyzer, Logger: quietLogger()})

	task := domain.NewAnalyzeDocumentTask("doc-1")
	task.MarkProcessing()
	w.processTask(context.Background(), task, w.logger)

	if len(queue.Acked) != 1 {
		t.Errorf("expected deleted document task acked, got %v", queue.Acked)
	}
}

func TestWorker_ProcessTask_MissingFile(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analyzer := newMockAnalyzer()
	analyzer.analyzeFn = func(string) error { return domain.ErrNotFound }
	w := NewWorker(WorkerConfig{TaskQueue: queue, Analyzer: analyzer, Logger: quietLogger()})

	task := domain.NewAnalyzeDocumentTask("doc-1")
	task.MarkProcessing()
	w.processTask(context.Background(), task, w.logger)

	if reason := analyzer.markFailed["doc-1"]; reason != "document file is missing" {
		t.Errorf("expected missing file recorded, got %q", reason)
	}
	if len(queue.Acked) != 1 {
		t.Errorf("expected task acked, got %v", queue.Acked)
	}
}

func TestWorker_ProcessLoop_WithTasks(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	analyzer := newMockAnalyzer()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := queue.Enqueue(ctx, domain.NewAnalyzeDocumentTask(id)); err != nil {
			t.Fatal(err)
		}
	}

	w := NewWorker(WorkerConfig{
		TaskQueue:      queue,
		Analyzer:       analyzer,
		Logger:         quietLogger(),
		Concurrency:    2,
		DequeueTimeout: 1,
	})
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for analyzer.analyzedCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()

	if got := analyzer.analyzedCount(); got != 3 {
		t.Errorf("expected 3 documents analyzed, got %d", got)
	}
	if len(queue.Acked) != 3 {
		t.Errorf("expected 3 acks, got %d", len(queue.Acked))
	}
}

func TestWorker_ContextCancellation(t *testing.T) {
	w := NewWorker(WorkerConfig{
		TaskQueue: mocks.NewMockTaskQueue(),
		Analyzer:  newMockAnalyzer(),
		Logger:    quietLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
	w.Stop()
}
