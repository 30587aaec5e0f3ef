package driven

import (
	"context"
	"io"
)

// BlobInfo describes a stored file
type BlobInfo struct {
	Key      string
	Size     int64
	Checksum string // blake2b-256, hex
}

// BlobStore holds raw uploaded files
type BlobStore interface {
	// Put writes r under key, enforcing maxSize bytes when positive.
	// Returns domain.ErrTooLarge if r exceeds maxSize; nothing is kept in that case.
	Put(ctx context.Context, key string, r io.Reader, maxSize int64) (*BlobInfo, error)

	// Open returns a reader for key. Returns domain.ErrNotFound if missing.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}
