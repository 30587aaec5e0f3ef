package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChatStore = (*ChatStore)(nil)

// ChatStore implements driven.ChatStore using PostgreSQL.
// Visualizations are stored as JSONB; seq preserves append order.
type ChatStore struct {
	db *DB
}

// NewChatStore creates a new ChatStore
func NewChatStore(db *DB) *ChatStore {
	return &ChatStore{db: db}
}

// Append inserts messages in one transaction
func (s *ChatStore) Append(ctx context.Context, messages ...*domain.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chat_messages (id, document_id, role, text, visualization, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`)
		if err != nil {
			return fmt.Errorf("prepare chat insert: %w", err)
		}
		defer stmt.Close()

		for _, m := range messages {
			// JSONB is sent as text; nil becomes NULL
			var vis interface{}
			if m.Visualization != nil {
				data, err := json.Marshal(m.Visualization)
				if err != nil {
					return fmt.Errorf("marshal visualization: %w", err)
				}
				vis = string(data)
			}
			if _, err := stmt.ExecContext(ctx, m.ID, m.DocumentID, m.Role, m.Text, vis, m.CreatedAt); err != nil {
				return fmt.Errorf("insert chat message: %w", err)
			}
		}
		return nil
	})
}

// List returns the newest limit messages, oldest first
func (s *ChatStore) List(ctx context.Context, documentID string, limit int) ([]*domain.ChatMessage, error) {
	query := `
		SELECT id, document_id, role, text, visualization, created_at FROM (
			SELECT seq, id, document_id, role, text, visualization, created_at
			FROM chat_messages
			WHERE document_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) recent
		ORDER BY seq ASC
	`
	var lim interface{}
	if limit > 0 {
		lim = limit
	}

	rows, err := s.db.QueryContext(ctx, query, documentID, lim)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*domain.ChatMessage, 0)
	for rows.Next() {
		var m domain.ChatMessage
		var vis []byte
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.Role, &m.Text, &vis, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if len(vis) > 0 {
			m.Visualization = &domain.Visualization{}
			if err := json.Unmarshal(vis, m.Visualization); err != nil {
				return nil, fmt.Errorf("unmarshal visualization: %w", err)
			}
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// DeleteByDocument removes a document's history
func (s *ChatStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete chat messages: %w", err)
	}
	return nil
}
