package driven

import (
	"context"

	"github.com/custodia-labs/docdash/internal/core/domain"
)

// DocumentStore handles document record persistence (PostgreSQL or memory)
type DocumentStore interface {
	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns documents matching the filter in the filter's order
	List(ctx context.Context, filter domain.DocumentFilter) ([]*domain.Document, error)

	// Delete deletes a document.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// Labels returns every label in use with its document count, sorted by label
	Labels(ctx context.Context) ([]domain.LabelCount, error)

	// Count returns total document count
	Count(ctx context.Context) (int, error)

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error
}

// ChatStore handles chat history persistence
type ChatStore interface {
	// Append adds messages to a document's history in order
	Append(ctx context.Context, messages ...*domain.ChatMessage) error

	// List returns the most recent messages for a document, oldest first.
	// A limit of 0 or less returns everything.
	List(ctx context.Context, documentID string, limit int) ([]*domain.ChatMessage, error)

	// DeleteByDocument removes a document's history
	DeleteByDocument(ctx context.Context, documentID string) error
}
