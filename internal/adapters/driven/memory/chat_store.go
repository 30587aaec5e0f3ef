package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChatStore = (*ChatStore)(nil)

// ChatStore keeps per-document conversations in append order
type ChatStore struct {
	mu       sync.RWMutex
	messages map[string][]*domain.ChatMessage
}

// NewChatStore creates an empty chat store
func NewChatStore() *ChatStore {
	return &ChatStore{
		messages: make(map[string][]*domain.ChatMessage),
	}
}

func (s *ChatStore) Append(ctx context.Context, messages ...*domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range messages {
		c := *m
		s.messages[m.DocumentID] = append(s.messages[m.DocumentID], &c)
	}
	return nil
}

func (s *ChatStore) List(ctx context.Context, documentID string, limit int) ([]*domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[documentID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}

	out := make([]*domain.ChatMessage, len(all))
	for i, m := range all {
		c := *m
		out[i] = &c
	}
	return out, nil
}

func (s *ChatStore) DeleteByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, documentID)
	return nil
}
