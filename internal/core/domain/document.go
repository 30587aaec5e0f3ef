package domain

import (
	"math"
	"path/filepath"
	"strings"
	"time"
)

// DocumentStatus tracks the analysis state of an uploaded document
type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusFailed     DocumentStatus = "failed"
)

const (
	// MaxNameLength is the longest display name accepted on rename
	MaxNameLength = 255

	// MaxLabelLength is the longest label accepted
	MaxLabelLength = 64

	// RowsPerPage converts a CSV row count into a dashboard page count
	RowsPerPage = 50

	// MimeTypeCSV is the mime type recorded for comma-separated uploads
	MimeTypeCSV = "text/csv"
)

// Document represents an uploaded file shown on the dashboard
type Document struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Filename   string         `json:"filename"`  // Original upload filename
	StorageKey string         `json:"-"`         // Key in the blob store
	MimeType   string         `json:"mime_type"`
	Size       int64          `json:"size"`
	Checksum   string         `json:"checksum"`  // blake2b-256, hex
	Pages      int            `json:"pages"`
	RowCount   int            `json:"row_count"`
	Columns    []string       `json:"columns"`
	Labels     []string       `json:"labels"`
	Status     DocumentStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	UploadedAt time.Time      `json:"uploaded_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// DocumentView is the dashboard representation of a document.
// DaysAgo is derived from UploadedAt at read time.
type DocumentView struct {
	*Document
	DaysAgo int `json:"daysAgo"`
}

// NewDocumentView builds a view relative to now. Labels and columns are
// never null in the view.
func NewDocumentView(doc *Document, now time.Time) *DocumentView {
	c := doc.Clone()
	if c.Labels == nil {
		c.Labels = []string{}
	}
	if c.Columns == nil {
		c.Columns = []string{}
	}
	return &DocumentView{
		Document: c,
		DaysAgo:  DaysAgo(doc.UploadedAt, now),
	}
}

// DaysAgo returns the number of started days between t and now.
// A zero timestamp yields 0.
func DaysAgo(t, now time.Time) int {
	if t.IsZero() {
		return 0
	}
	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// IsCSV reports whether the document holds comma-separated data
func (d *Document) IsCSV() bool {
	if strings.HasPrefix(d.MimeType, MimeTypeCSV) {
		return true
	}
	return IsCSVFilename(d.Filename)
}

// HasLabel reports whether the label is already attached
func (d *Document) HasLabel(label string) bool {
	for _, l := range d.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// AddLabel attaches a label. Returns false if it was already present.
func (d *Document) AddLabel(label string) bool {
	if d.HasLabel(label) {
		return false
	}
	d.Labels = append(d.Labels, label)
	return true
}

// RemoveLabel detaches a label. Returns false if it was not present.
func (d *Document) RemoveLabel(label string) bool {
	for i, l := range d.Labels {
		if l == label {
			d.Labels = append(d.Labels[:i], d.Labels[i+1:]...)
			return true
		}
	}
	return false
}

// MarkAnalyzed records the outcome of a successful analysis
func (d *Document) MarkAnalyzed(rowCount int, columns []string) {
	d.RowCount = rowCount
	d.Columns = columns
	d.Pages = PageCount(rowCount)
	d.Status = DocumentStatusReady
	d.Error = ""
	d.UpdatedAt = time.Now()
}

// MarkFailed records a terminal analysis failure
func (d *Document) MarkFailed(reason string) {
	d.Status = DocumentStatusFailed
	d.Error = reason
	d.UpdatedAt = time.Now()
}

// Clone returns a deep copy so callers can mutate without sharing slices
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Labels = append([]string(nil), d.Labels...)
	c.Columns = append([]string(nil), d.Columns...)
	return &c
}

// PageCount converts rows into pages, minimum 1
func PageCount(rows int) int {
	pages := (rows + RowsPerPage - 1) / RowsPerPage
	if pages < 1 {
		return 1
	}
	return pages
}

// NormalizeName trims and validates a display name
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxNameLength {
		return "", ErrInvalidInput
	}
	return name, nil
}

// NormalizeLabel trims and validates a label
func NormalizeLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" || len(label) > MaxLabelLength || strings.Contains(label, "/") {
		return "", ErrInvalidInput
	}
	return label, nil
}

// IsCSVFilename reports whether a filename has a .csv extension
func IsCSVFilename(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// DocumentFilter narrows and orders the dashboard listing
type DocumentFilter struct {
	Label string    `json:"label,omitempty"`
	Query string    `json:"q,omitempty"` // Case-insensitive substring of the name
	Sort  SortField `json:"sort,omitempty"`
	Desc  bool      `json:"desc,omitempty"`
}

// SortField selects the listing order
type SortField string

const (
	SortByDate  SortField = "date"
	SortByName  SortField = "name"
	SortByPages SortField = "pages"
)

// Valid reports whether the sort field is known
func (s SortField) Valid() bool {
	switch s {
	case "", SortByDate, SortByName, SortByPages:
		return true
	}
	return false
}

// Matches reports whether a document passes the filter
func (f DocumentFilter) Matches(doc *Document) bool {
	if f.Label != "" && !doc.HasLabel(f.Label) {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(doc.Name), strings.ToLower(f.Query)) {
		return false
	}
	return true
}

// Less orders two documents according to the filter
func (f DocumentFilter) Less(a, b *Document) bool {
	var less bool
	switch f.Sort {
	case SortByName:
		less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
	case SortByPages:
		less = a.Pages < b.Pages
	default:
		less = a.UploadedAt.Before(b.UploadedAt)
	}
	if f.Desc {
		return !less && !f.equal(a, b)
	}
	return less
}

func (f DocumentFilter) equal(a, b *Document) bool {
	switch f.Sort {
	case SortByName:
		return strings.EqualFold(a.Name, b.Name)
	case SortByPages:
		return a.Pages == b.Pages
	default:
		return a.UploadedAt.Equal(b.UploadedAt)
	}
}

// LabelCount is a label with the number of documents carrying it
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
