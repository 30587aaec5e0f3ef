package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL.
// Labels and columns are TEXT[] columns.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, name, filename, storage_key, mime_type, size, checksum,
	pages, row_count, columns, labels, status, error, uploaded_at, updated_at`

// Save creates or updates a document
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			mime_type = EXCLUDED.mime_type,
			size = EXCLUDED.size,
			checksum = EXCLUDED.checksum,
			pages = EXCLUDED.pages,
			row_count = EXCLUDED.row_count,
			columns = EXCLUDED.columns,
			labels = EXCLUDED.labels,
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			updated_at = EXCLUDED.updated_at
	`,
		doc.ID,
		doc.Name,
		doc.Filename,
		doc.StorageKey,
		doc.MimeType,
		doc.Size,
		doc.Checksum,
		doc.Pages,
		doc.RowCount,
		pq.Array(nonNil(doc.Columns)),
		pq.Array(nonNil(doc.Labels)),
		doc.Status,
		doc.Error,
		doc.UploadedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns documents matching the filter in the filter's order
func (s *DocumentStore) List(ctx context.Context, filter domain.DocumentFilter) ([]*domain.Document, error) {
	query, args := listQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// listQuery builds the SELECT for a filter. Only whitelisted sort
// expressions reach the ORDER BY clause.
func listQuery(filter domain.DocumentFilter) (string, []interface{}) {
	var where []string
	var args []interface{}

	if filter.Label != "" {
		args = append(args, filter.Label)
		where = append(where, fmt.Sprintf("$%d = ANY(labels)", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+escapeLike(filter.Query)+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT " + documentColumns + " FROM documents")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	dir := "ASC"
	if filter.Desc {
		dir = "DESC"
	}
	switch filter.Sort {
	case domain.SortByName:
		b.WriteString(" ORDER BY LOWER(name) " + dir)
	case domain.SortByPages:
		b.WriteString(" ORDER BY pages " + dir)
	default:
		b.WriteString(" ORDER BY uploaded_at " + dir)
	}
	b.WriteString(", id ASC")

	return b.String(), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Delete deletes a document. Chat history goes with it via ON DELETE CASCADE.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Labels returns every label in use with its document count
func (s *DocumentStore) Labels(ctx context.Context) ([]domain.LabelCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, COUNT(*)
		FROM documents, unnest(labels) AS label
		GROUP BY label
		ORDER BY label
	`)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	labels := make([]domain.LabelCount, 0)
	for rows.Next() {
		var lc domain.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, lc)
	}
	return labels, rows.Err()
}

// Count returns total document count
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Ping checks database connectivity
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var columns, labels pq.StringArray

	err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Filename,
		&doc.StorageKey,
		&doc.MimeType,
		&doc.Size,
		&doc.Checksum,
		&doc.Pages,
		&doc.RowCount,
		&columns,
		&labels,
		&doc.Status,
		&doc.Error,
		&doc.UploadedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Columns = []string(columns)
	doc.Labels = []string(labels)
	return &doc, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
