// Package memory provides process-lifetime implementations of the driven
// ports for running without PostgreSQL or Redis.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps documents in a map. Stored values are cloned on the
// way in and out so callers never share label or column slices.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document
}

// NewDocumentStore creates an empty store
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*domain.Document),
	}
}

func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc.Clone()
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *DocumentStore) List(ctx context.Context, filter domain.DocumentFilter) ([]*domain.Document, error) {
	s.mu.RLock()
	docs := make([]*domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if filter.Matches(doc) {
			docs = append(docs, doc.Clone())
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(docs, func(i, j int) bool {
		if filter.Less(docs[i], docs[j]) {
			return true
		}
		if filter.Less(docs[j], docs[i]) {
			return false
		}
		// Map iteration is random; break ties on ID for a stable listing.
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

func (s *DocumentStore) Labels(ctx context.Context) ([]domain.LabelCount, error) {
	s.mu.RLock()
	counts := make(map[string]int)
	for _, doc := range s.documents {
		for _, l := range doc.Labels {
			counts[l]++
		}
	}
	s.mu.RUnlock()

	labels := make([]domain.LabelCount, 0, len(counts))
	for l, n := range counts {
		labels = append(labels, domain.LabelCount{Label: l, Count: n})
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Label < labels[j].Label })
	return labels, nil
}

func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	return nil
}
