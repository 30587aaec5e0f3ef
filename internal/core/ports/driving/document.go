package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/docdash/internal/core/domain"
)

// UploadRequest carries an uploaded file
type UploadRequest struct {
	Filename string
	MimeType string
	Content  io.Reader

	// CSVOnly rejects anything that is not a .csv file with domain.ErrUnsupportedType
	CSVOnly bool
}

// DocumentService manages the dashboard's documents
type DocumentService interface {
	// List returns documents matching the filter
	List(ctx context.Context, filter domain.DocumentFilter) ([]*domain.Document, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Upload stores a file and schedules its analysis
	Upload(ctx context.Context, req UploadRequest) (*domain.Document, error)

	// Rename changes a document's display name
	Rename(ctx context.Context, id, name string) (*domain.Document, error)

	// Delete removes a document with its file, cached rows and chat history
	Delete(ctx context.Context, id string) error

	// DeleteMany deletes several documents concurrently and returns how many were removed.
	// Missing IDs are skipped; other failures abort the batch.
	DeleteMany(ctx context.Context, ids []string) (int, error)

	// AddLabel attaches a label. Adding an existing label is a no-op.
	AddLabel(ctx context.Context, id, label string) (*domain.Document, error)

	// RemoveLabel detaches a label. Removing an absent label is a no-op.
	RemoveLabel(ctx context.Context, id, label string) (*domain.Document, error)

	// Labels lists labels in use with their document counts
	Labels(ctx context.Context) ([]domain.LabelCount, error)

	// OpenContent returns the document and a reader over its raw bytes.
	// The caller closes the reader.
	OpenContent(ctx context.Context, id string) (*domain.Document, io.ReadCloser, error)
}
