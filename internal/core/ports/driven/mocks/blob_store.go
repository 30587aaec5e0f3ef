package mocks

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

// MockBlobStore keeps blobs in a map
type MockBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	PutErr    error
	OpenErr   error
	DeleteErr error

	OpenCalls int
}

// NewMockBlobStore creates a new MockBlobStore
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{blobs: make(map[string][]byte)}
}

func (m *MockBlobStore) Put(ctx context.Context, key string, r io.Reader, maxSize int64) (*driven.BlobInfo, error) {
	if m.PutErr != nil {
		return nil, m.PutErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, domain.ErrTooLarge
	}
	m.mu.Lock()
	m.blobs[key] = data
	m.mu.Unlock()
	return &driven.BlobInfo{Key: key, Size: int64(len(data)), Checksum: "mock-checksum"}, nil
}

func (m *MockBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OpenCalls++
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	data, ok := m.blobs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockBlobStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.blobs, key)
	return nil
}

// Has reports whether key is stored (for test assertions).
func (m *MockBlobStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok
}

// SetBlob stores raw content (for test setup).
func (m *MockBlobStore) SetBlob(key, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = []byte(content)
}
