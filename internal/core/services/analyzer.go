package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
	"github.com/custodia-labs/docdash/internal/tabular"
)

// DefaultCacheTTL is how long parsed rows stay in the row cache
const DefaultCacheTTL = 10 * time.Minute

// Analyzer fills in row count, columns and pages for uploaded documents.
// It runs from the worker for queued tasks, or inline when there is no queue.
type Analyzer struct {
	store    driven.DocumentStore
	blobs    driven.BlobStore
	cache    driven.RowCache
	locker   documentLocker
	cacheTTL time.Duration
	logger   *slog.Logger
}

// AnalyzerConfig holds dependencies for the analyzer.
type AnalyzerConfig struct {
	Store    driven.DocumentStore
	Blobs    driven.BlobStore
	Cache    driven.RowCache        // Optional: warmed with the parsed table
	Lock     driven.DistributedLock // Optional: guards the status update
	LockTTL  time.Duration
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	return &Analyzer{
		store:    cfg.Store,
		blobs:    cfg.Blobs,
		cache:    cfg.Cache,
		locker:   documentLocker{lock: cfg.Lock, ttl: lockTTL, logger: logger},
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Analyze reads the stored file and marks the document ready.
// Files other than CSV are ready with a single page.
func (a *Analyzer) Analyze(ctx context.Context, documentID string) error {
	return a.locker.with(ctx, documentID, func() error {
		doc, err := a.store.Get(ctx, documentID)
		if err != nil {
			return err
		}

		if !doc.IsCSV() {
			doc.MarkAnalyzed(0, nil)
			return a.store.Save(ctx, doc)
		}

		table, err := a.readTable(ctx, doc)
		if err != nil {
			return err
		}

		doc.MarkAnalyzed(table.Len(), table.Columns)
		if err := a.store.Save(ctx, doc); err != nil {
			return fmt.Errorf("save analysis: %w", err)
		}

		if a.cache != nil {
			if err := a.cache.Set(ctx, doc.ID, table, a.cacheTTL); err != nil {
				a.logger.Warn("failed to warm row cache", "document_id", doc.ID, "error", err)
			}
		}

		a.logger.Info("document analyzed",
			"document_id", doc.ID,
			"rows", doc.RowCount,
			"pages", doc.Pages,
		)
		return nil
	})
}

// MarkFailed records a terminal analysis failure on the document.
func (a *Analyzer) MarkFailed(ctx context.Context, documentID, reason string) error {
	return a.locker.with(ctx, documentID, func() error {
		doc, err := a.store.Get(ctx, documentID)
		if err != nil {
			return err
		}
		doc.MarkFailed(reason)
		return a.store.Save(ctx, doc)
	})
}

func (a *Analyzer) readTable(ctx context.Context, doc *domain.Document) (*tabular.Table, error) {
	rc, err := a.blobs.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", doc.StorageKey, err)
	}
	defer rc.Close()

	return tabular.Load(rc)
}
