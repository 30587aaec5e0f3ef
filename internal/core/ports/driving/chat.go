package driving

import (
	"context"

	"github.com/custodia-labs/docdash/internal/core/domain"
)

// ChatService answers questions about a document's data
type ChatService interface {
	// Ask answers a message about a CSV document.
	// Returns domain.ErrNotFound for unknown documents and
	// domain.ErrUnsupportedType for documents that are not CSV.
	Ask(ctx context.Context, documentID string, req domain.ChatRequest) (*domain.ChatResponse, error)

	// History returns the stored conversation for a document, oldest first
	History(ctx context.Context, documentID string, limit int) ([]*domain.ChatMessage, error)

	// ClearHistory removes a document's conversation
	ClearHistory(ctx context.Context, documentID string) error
}
