package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docdash/internal/core/domain"
)

// MockDocumentStore is an in-memory DocumentStore with failure injection
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document

	// Optional overrides
	SaveErr   error
	DeleteErr error
	PingErr   error

	SaveCalls int
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string]*domain.Document),
	}
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.documents[doc.ID] = doc.Clone()
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc.Clone(), nil
}

func (m *MockDocumentStore) List(ctx context.Context, filter domain.DocumentFilter) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*domain.Document
	for _, doc := range m.documents {
		if filter.Matches(doc) {
			docs = append(docs, doc.Clone())
		}
	}
	sort.SliceStable(docs, func(i, j int) bool { return filter.Less(docs[i], docs[j]) })
	return docs, nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.documents, id)
	return nil
}

func (m *MockDocumentStore) Labels(ctx context.Context) ([]domain.LabelCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, doc := range m.documents {
		for _, l := range doc.Labels {
			counts[l]++
		}
	}
	out := make([]domain.LabelCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, domain.LabelCount{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (m *MockDocumentStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents), nil
}

func (m *MockDocumentStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// Put stores a document directly (for test setup).
func (m *MockDocumentStore) Put(doc *domain.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = doc.Clone()
}
