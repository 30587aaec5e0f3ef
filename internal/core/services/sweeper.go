package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

const sweeperLockName = "sweeper"

// Sweeper re-queues analysis for documents stuck in processing, for example
// after a worker crashed between dequeue and ack.
// It runs on worker nodes.
//
// For multi-worker deployments, configure a DistributedLock so only one
// instance sweeps per cycle.
type Sweeper struct {
	store     driven.DocumentStore
	taskQueue driven.TaskQueue
	analyzer  *Analyzer
	lock      driven.DistributedLock
	locker    documentLocker
	logger    *slog.Logger

	// Internal state
	mu       sync.RWMutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	interval time.Duration
	staleAge time.Duration
	now      func() time.Time

	lockTTL time.Duration
}

// SweeperConfig holds configuration for the sweeper.
type SweeperConfig struct {
	Store        driven.DocumentStore
	TaskQueue    driven.TaskQueue       // Optional: nil re-analyzes inline with Analyzer
	Analyzer     *Analyzer              // Required when TaskQueue is nil
	Lock         driven.DistributedLock // Optional: distributed lock for multi-instance coordination
	Logger       *slog.Logger
	PollInterval time.Duration // How often to look for stuck documents (default: 1m)
	StaleAfter   time.Duration // How long a document may stay processing (default: 5m)
	LockTTL      time.Duration // TTL for the distributed lock (default: 2m)
	Now          func() time.Time
}

// NewSweeper creates a new sweeper.
func NewSweeper(cfg SweeperConfig) *Sweeper {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.PollInterval
	if interval == 0 {
		interval = time.Minute
	}

	staleAge := cfg.StaleAfter
	if staleAge == 0 {
		staleAge = 5 * time.Minute
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 2 * interval
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Sweeper{
		store:     cfg.Store,
		taskQueue: cfg.TaskQueue,
		analyzer:  cfg.Analyzer,
		lock:      cfg.Lock,
		locker:    documentLocker{lock: cfg.Lock, ttl: DefaultLockTTL, logger: logger},
		logger:    logger,
		interval:  interval,
		staleAge:  staleAge,
		lockTTL:   lockTTL,
		now:       now,
	}
}

// Start begins the sweep loop.
// It runs until Stop is called or context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("sweeper starting", "poll_interval", s.interval, "stale_after", s.staleAge)

	go s.run(ctx)

	return nil
}

// Stop gracefully stops the sweeper.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one cycle and returns how many documents were rescheduled.
// A cycle is skipped when another instance holds the sweeper lock.
func (s *Sweeper) Sweep(ctx context.Context) int {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, sweeperLockName, s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire sweeper lock", "error", err)
			return 0
		}
		if !acquired {
			s.logger.Debug("sweeper lock held by another instance, skipping cycle")
			return 0
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), sweeperLockName); err != nil {
				s.logger.Warn("failed to release sweeper lock", "error", err)
			}
		}()
	}

	docs, err := s.store.List(ctx, domain.DocumentFilter{Sort: domain.SortByDate})
	if err != nil {
		s.logger.Error("failed to list documents", "error", err)
		return 0
	}

	cutoff := s.now().Add(-s.staleAge)
	rescheduled := 0
	for _, doc := range docs {
		if doc.Status != domain.DocumentStatusProcessing || doc.UpdatedAt.After(cutoff) {
			continue
		}
		if err := s.reschedule(ctx, doc.ID); err != nil {
			s.logger.Error("failed to reschedule analysis", "document_id", doc.ID, "error", err)
			continue
		}
		rescheduled++
		s.logger.Info("rescheduled stuck analysis", "document_id", doc.ID, "since", doc.UpdatedAt)
	}
	return rescheduled
}

// reschedule queues another analysis and restarts the document's stale
// clock so the next cycle does not queue it again. Without a queue the
// analysis runs inline and a failure is terminal.
func (s *Sweeper) reschedule(ctx context.Context, documentID string) error {
	if s.taskQueue == nil {
		err := s.analyzer.Analyze(ctx, documentID)
		if err != nil {
			if markErr := s.analyzer.MarkFailed(ctx, documentID, err.Error()); markErr != nil {
				s.logger.Warn("failed to mark document failed", "document_id", documentID, "error", markErr)
			}
		}
		return err
	}

	if err := s.taskQueue.Enqueue(ctx, domain.NewAnalyzeDocumentTask(documentID)); err != nil {
		return err
	}

	err := s.locker.with(ctx, documentID, func() error {
		doc, err := s.store.Get(ctx, documentID)
		if err != nil {
			return err
		}
		if doc.Status != domain.DocumentStatusProcessing {
			return nil
		}
		doc.UpdatedAt = s.now()
		return s.store.Save(ctx, doc)
	})
	if err != nil {
		s.logger.Warn("failed to touch rescheduled document", "document_id", documentID, "error", err)
	}
	return nil
}
