package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
	"github.com/custodia-labs/docdash/internal/core/ports/driving"
)

// DefaultMaxUploadBytes caps uploads when no limit is configured
const DefaultMaxUploadBytes = 10 << 20

// bulkDeleteConcurrency bounds parallel deletes in DeleteMany
const bulkDeleteConcurrency = 8

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService implements the DocumentService interface
type documentService struct {
	store    driven.DocumentStore
	blobs    driven.BlobStore
	cache    driven.RowCache
	chats    driven.ChatStore
	queue    driven.TaskQueue
	analyzer *Analyzer
	locker   documentLocker
	logger   *slog.Logger

	maxUploadBytes int64
	now            func() time.Time
}

// DocumentServiceConfig holds dependencies for the document service.
type DocumentServiceConfig struct {
	Store    driven.DocumentStore
	Blobs    driven.BlobStore
	Cache    driven.RowCache        // Optional: invalidated on delete
	Chats    driven.ChatStore       // Optional: history cleared on delete
	Queue    driven.TaskQueue       // Optional: nil analyzes uploads inline
	Lock     driven.DistributedLock // Optional: nil disables per-document locking
	Analyzer *Analyzer
	Logger   *slog.Logger

	MaxUploadBytes int64         // default: 10 MiB
	LockTTL        time.Duration // default: 10s
	Now            func() time.Time
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(cfg DocumentServiceConfig) driving.DocumentService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = NewAnalyzer(AnalyzerConfig{
			Store:   cfg.Store,
			Blobs:   cfg.Blobs,
			Cache:   cfg.Cache,
			Lock:    cfg.Lock,
			LockTTL: lockTTL,
			Logger:  logger,
		})
	}

	return &documentService{
		store:          cfg.Store,
		blobs:          cfg.Blobs,
		cache:          cfg.Cache,
		chats:          cfg.Chats,
		queue:          cfg.Queue,
		analyzer:       analyzer,
		locker:         documentLocker{lock: cfg.Lock, ttl: lockTTL, logger: logger},
		logger:         logger,
		maxUploadBytes: maxUpload,
		now:            now,
	}
}

// List returns documents matching the filter
func (s *documentService) List(ctx context.Context, filter domain.DocumentFilter) ([]*domain.Document, error) {
	if !filter.Sort.Valid() {
		return nil, fmt.Errorf("%w: unknown sort field %q", domain.ErrInvalidInput, filter.Sort)
	}
	filter.Label = strings.TrimSpace(filter.Label)
	filter.Query = strings.TrimSpace(filter.Query)
	return s.store.List(ctx, filter)
}

// Get retrieves a document by ID
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.store.Get(ctx, id)
}

// Upload stores the file, records the document and schedules analysis
func (s *documentService) Upload(ctx context.Context, req driving.UploadRequest) (*domain.Document, error) {
	filename := filepath.Base(strings.TrimSpace(req.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if req.Content == nil {
		return nil, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	if req.CSVOnly && !domain.IsCSVFilename(filename) {
		return nil, fmt.Errorf("%w: %s is not a CSV file", domain.ErrUnsupportedType, filename)
	}

	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	key := id + ext

	info, err := s.blobs.Put(ctx, key, req.Content, s.maxUploadBytes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc := &domain.Document{
		ID:         id,
		Name:       filename,
		Filename:   filename,
		StorageKey: key,
		MimeType:   detectMimeType(filename, req.MimeType),
		Size:       info.Size,
		Checksum:   info.Checksum,
		Pages:      1,
		Columns:    []string{},
		Labels:     []string{},
		Status:     domain.DocumentStatusProcessing,
		UploadedAt: now,
		UpdatedAt:  now,
	}

	if err := s.store.Save(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("save document: %w", err)
	}

	s.logger.Info("document uploaded",
		"document_id", id,
		"filename", filename,
		"size", info.Size,
	)

	s.scheduleAnalysis(ctx, id)

	return s.store.Get(ctx, id)
}

// scheduleAnalysis queues the analysis, or runs it inline without a queue
// or when the queue rejects the task.
func (s *documentService) scheduleAnalysis(ctx context.Context, id string) {
	if s.queue != nil {
		err := s.queue.Enqueue(ctx, domain.NewAnalyzeDocumentTask(id))
		if err == nil {
			return
		}
		s.logger.Warn("failed to queue analysis, analyzing inline", "document_id", id, "error", err)
	}

	if err := s.analyzer.Analyze(ctx, id); err != nil {
		s.logger.Error("document analysis failed", "document_id", id, "error", err)
		if markErr := s.analyzer.MarkFailed(ctx, id, err.Error()); markErr != nil {
			s.logger.Error("failed to mark document failed", "document_id", id, "error", markErr)
		}
	}
}

// Rename changes a document's display name
func (s *documentService) Rename(ctx context.Context, id, name string) (*domain.Document, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: name must be 1-%d characters", err, domain.MaxNameLength)
	}

	var doc *domain.Document
	err = s.locker.with(ctx, id, func() error {
		doc, err = s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		doc.Name = name
		doc.UpdatedAt = s.now()
		return s.store.Save(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes the record first, then its file, cached rows and history.
// Cleanup failures after the record is gone are logged.
func (s *documentService) Delete(ctx context.Context, id string) error {
	return s.locker.with(ctx, id, func() error {
		doc, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.store.Delete(ctx, id); err != nil {
			return err
		}

		if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
			s.logger.Warn("failed to delete document file", "document_id", id, "key", doc.StorageKey, "error", err)
		}
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx, id); err != nil {
				s.logger.Warn("failed to invalidate row cache", "document_id", id, "error", err)
			}
		}
		if s.chats != nil {
			if err := s.chats.DeleteByDocument(ctx, id); err != nil {
				s.logger.Warn("failed to delete chat history", "document_id", id, "error", err)
			}
		}

		s.logger.Info("document deleted", "document_id", id)
		return nil
	})
}

// DeleteMany deletes documents concurrently, skipping IDs that do not exist
func (s *documentService) DeleteMany(ctx context.Context, ids []string) (int, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return 0, fmt.Errorf("%w: ids are required", domain.ErrInvalidInput)
	}

	var deleted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkDeleteConcurrency)
	for _, id := range unique {
		g.Go(func() error {
			err := s.Delete(gctx, id)
			switch {
			case err == nil:
				deleted.Add(1)
				return nil
			case errors.Is(err, domain.ErrNotFound):
				return nil
			default:
				return fmt.Errorf("delete %s: %w", id, err)
			}
		})
	}
	err := g.Wait()
	return int(deleted.Load()), err
}

// AddLabel attaches a label
func (s *documentService) AddLabel(ctx context.Context, id, label string) (*domain.Document, error) {
	label, err := domain.NormalizeLabel(label)
	if err != nil {
		return nil, fmt.Errorf("%w: label must be 1-%d characters without '/'", err, domain.MaxLabelLength)
	}
	return s.updateLabels(ctx, id, func(doc *domain.Document) bool {
		return doc.AddLabel(label)
	})
}

// RemoveLabel detaches a label
func (s *documentService) RemoveLabel(ctx context.Context, id, label string) (*domain.Document, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", domain.ErrInvalidInput)
	}
	return s.updateLabels(ctx, id, func(doc *domain.Document) bool {
		return doc.RemoveLabel(label)
	})
}

// updateLabels applies change under the document lock and saves only when
// the label set changed.
func (s *documentService) updateLabels(ctx context.Context, id string, change func(*domain.Document) bool) (*domain.Document, error) {
	var doc *domain.Document
	err := s.locker.with(ctx, id, func() error {
		var err error
		doc, err = s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if !change(doc) {
			return nil
		}
		doc.UpdatedAt = s.now()
		return s.store.Save(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Labels lists labels in use with their document counts
func (s *documentService) Labels(ctx context.Context) ([]domain.LabelCount, error) {
	return s.store.Labels(ctx)
}

// OpenContent returns the document with a reader over its stored file
func (s *documentService) OpenContent(ctx context.Context, id string) (*domain.Document, io.ReadCloser, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return doc, rc, nil
}

// detectMimeType prefers text/csv for .csv names, then the client's type,
// then the extension's registered type.
func detectMimeType(filename, declared string) string {
	if domain.IsCSVFilename(filename) {
		return domain.MimeTypeCSV
	}
	if declared = strings.TrimSpace(declared); declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
