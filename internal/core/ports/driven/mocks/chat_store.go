package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/docdash/internal/core/domain"
)

// MockChatStore records appended chat messages
type MockChatStore struct {
	mu       sync.Mutex
	messages []*domain.ChatMessage

	AppendErr error
	ListErr   error
	DeleteErr error
}

// NewMockChatStore creates a new MockChatStore
func NewMockChatStore() *MockChatStore {
	return &MockChatStore{}
}

func (m *MockChatStore) Append(ctx context.Context, messages ...*domain.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.messages = append(m.messages, messages...)
	return nil
}

func (m *MockChatStore) List(ctx context.Context, documentID string, limit int) ([]*domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*domain.ChatMessage
	for _, msg := range m.messages {
		if msg.DocumentID == documentID {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *MockChatStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.DocumentID != documentID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

// All returns every stored message (for test assertions).
func (m *MockChatStore) All() []*domain.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.ChatMessage(nil), m.messages...)
}
