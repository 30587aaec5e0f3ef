package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docdash/internal/analysis"
	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
	"github.com/custodia-labs/docdash/internal/core/ports/driving"
	"github.com/custodia-labs/docdash/internal/tabular"
)

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// errMissingData hides the blob store's not-found from callers:
// a document without its file is a server fault, not an unknown document.
var errMissingData = errors.New("document file is missing")

// chatService implements the ChatService interface
type chatService struct {
	store    driven.DocumentStore
	blobs    driven.BlobStore
	cache    driven.RowCache
	chats    driven.ChatStore
	engine   *analysis.Engine
	logger   *slog.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// ChatServiceConfig holds dependencies for the chat service.
type ChatServiceConfig struct {
	Store    driven.DocumentStore
	Blobs    driven.BlobStore
	Cache    driven.RowCache  // Optional: nil reads the file on every question
	Chats    driven.ChatStore // Optional: nil disables history
	Engine   *analysis.Engine // default: engine over the default registry
	Logger   *slog.Logger
	CacheTTL time.Duration // default: 10m
	Now      func() time.Time
}

// NewChatService creates a new ChatService
func NewChatService(cfg ChatServiceConfig) driving.ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := cfg.Engine
	if engine == nil {
		engine = analysis.NewEngine(nil)
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &chatService{
		store:    cfg.Store,
		blobs:    cfg.Blobs,
		cache:    cfg.Cache,
		chats:    cfg.Chats,
		engine:   engine,
		logger:   logger,
		cacheTTL: cacheTTL,
		now:      now,
	}
}

// Ask answers a question about a CSV document
func (s *chatService) Ask(ctx context.Context, documentID string, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: message is required", err)
	}

	doc, err := s.store.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.IsCSV() {
		return nil, fmt.Errorf("%w: chat needs a CSV document", domain.ErrUnsupportedType)
	}

	table, err := s.loadTable(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", documentID, err)
	}

	resp := s.engine.Answer(req.Message, table)

	s.recordExchange(ctx, documentID, req.Message, resp)

	return &resp, nil
}

// loadTable reads parsed rows from the cache, falling back to the stored file
func (s *chatService) loadTable(ctx context.Context, doc *domain.Document) (*tabular.Table, error) {
	if s.cache != nil {
		table, err := s.cache.Get(ctx, doc.ID)
		if err != nil {
			s.logger.Warn("row cache read failed", "document_id", doc.ID, "error", err)
		} else if table != nil {
			return table, nil
		}
	}

	rc, err := s.blobs.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errMissingData
		}
		return nil, err
	}
	defer rc.Close()

	table, err := tabular.Load(rc)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, doc.ID, table, s.cacheTTL); err != nil {
			s.logger.Warn("row cache write failed", "document_id", doc.ID, "error", err)
		}
	}
	return table, nil
}

// recordExchange appends the question and answer to the history.
// A failed write never fails the answer.
func (s *chatService) recordExchange(ctx context.Context, documentID, question string, resp domain.ChatResponse) {
	if s.chats == nil {
		return
	}

	now := s.now()
	messages := []*domain.ChatMessage{
		{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			Role:       domain.ChatRoleUser,
			Text:       question,
			CreatedAt:  now,
		},
		{
			ID:            uuid.NewString(),
			DocumentID:    documentID,
			Role:          domain.ChatRoleAssistant,
			Text:          resp.Text,
			Visualization: resp.Visualization,
			CreatedAt:     now,
		},
	}
	if err := s.chats.Append(ctx, messages...); err != nil {
		s.logger.Warn("failed to record chat history", "document_id", documentID, "error", err)
	}
}

// History returns the stored conversation, oldest first
func (s *chatService) History(ctx context.Context, documentID string, limit int) ([]*domain.ChatMessage, error) {
	if _, err := s.store.Get(ctx, documentID); err != nil {
		return nil, err
	}
	if s.chats == nil {
		return []*domain.ChatMessage{}, nil
	}
	return s.chats.List(ctx, documentID, limit)
}

// ClearHistory removes a document's conversation
func (s *chatService) ClearHistory(ctx context.Context, documentID string) error {
	if _, err := s.store.Get(ctx, documentID); err != nil {
		return err
	}
	if s.chats == nil {
		return nil
	}
	return s.chats.DeleteByDocument(ctx, documentID)
}
