package domain

import (
	"sort"
	"testing"
	"time"
)

func TestDaysAgo(t *testing.T) {
	now := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{"zero timestamp", time.Time{}, 0},
		{"same instant", now, 0},
		{"one hour ago", now.Add(-time.Hour), 1},
		{"exactly one day", now.Add(-24 * time.Hour), 1},
		{"just over one day", now.Add(-25 * time.Hour), 2},
		{"future timestamp", now.Add(36 * time.Hour), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysAgo(tt.t, now); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestNewDocumentView(t *testing.T) {
	now := time.Now()
	doc := &Document{ID: "doc-1", Name: "sales.csv", UploadedAt: now.Add(-49 * time.Hour)}

	view := NewDocumentView(doc, now)
	if view.ID != "doc-1" {
		t.Errorf("expected embedded document, got %s", view.ID)
	}
	if view.DaysAgo != 3 {
		t.Errorf("expected 3 days ago, got %d", view.DaysAgo)
	}
	if view.Labels == nil || view.Columns == nil {
		t.Error("expected non-nil labels and columns in view")
	}
	if doc.Labels != nil {
		t.Error("view must not mutate the source document")
	}
}

func TestDocument_Labels(t *testing.T) {
	doc := &Document{}

	if !doc.AddLabel("finance") {
		t.Error("expected first add to succeed")
	}
	if doc.AddLabel("finance") {
		t.Error("expected duplicate add to be a no-op")
	}
	if !doc.AddLabel("q1") {
		t.Error("expected second label to be added")
	}
	if len(doc.Labels) != 2 {
		t.Fatalf("expected 2 labels, got %d", len(doc.Labels))
	}
	if !doc.HasLabel("q1") {
		t.Error("expected q1 to be present")
	}
	if !doc.RemoveLabel("finance") {
		t.Error("expected remove to succeed")
	}
	if doc.RemoveLabel("finance") {
		t.Error("expected second remove to report absence")
	}
	if len(doc.Labels) != 1 || doc.Labels[0] != "q1" {
		t.Errorf("unexpected labels %v", doc.Labels)
	}
}

func TestDocument_IsCSV(t *testing.T) {
	tests := []struct {
		doc  Document
		want bool
	}{
		{Document{MimeType: "text/csv"}, true},
		{Document{MimeType: "text/csv; charset=utf-8"}, true},
		{Document{Filename: "DATA.CSV"}, true},
		{Document{Filename: "report.pdf", MimeType: "application/pdf"}, false},
		{Document{}, false},
	}

	for _, tt := range tests {
		if got := tt.doc.IsCSV(); got != tt.want {
			t.Errorf("IsCSV(%q, %q) = %v, want %v", tt.doc.Filename, tt.doc.MimeType, got, tt.want)
		}
	}
}

func TestDocument_MarkAnalyzed(t *testing.T) {
	doc := &Document{Status: DocumentStatusProcessing, Error: "previous"}
	doc.MarkAnalyzed(101, []string{"region", "sales"})

	if doc.Status != DocumentStatusReady {
		t.Errorf("expected ready, got %s", doc.Status)
	}
	if doc.Pages != 3 {
		t.Errorf("expected 3 pages, got %d", doc.Pages)
	}
	if doc.RowCount != 101 {
		t.Errorf("expected 101 rows, got %d", doc.RowCount)
	}
	if doc.Error != "" {
		t.Errorf("expected error cleared, got %q", doc.Error)
	}

	doc.MarkFailed("boom")
	if doc.Status != DocumentStatusFailed || doc.Error != "boom" {
		t.Errorf("unexpected failed state %s %q", doc.Status, doc.Error)
	}
}

func TestDocument_Clone(t *testing.T) {
	doc := &Document{ID: "doc-1", Labels: []string{"a"}, Columns: []string{"x"}}
	c := doc.Clone()
	c.Labels[0] = "changed"
	c.Columns = append(c.Columns, "y")

	if doc.Labels[0] != "a" {
		t.Error("clone shares label storage")
	}
	if len(doc.Columns) != 1 {
		t.Error("clone shares column storage")
	}

	var nilDoc *Document
	if nilDoc.Clone() != nil {
		t.Error("expected nil clone of nil document")
	}
}

func TestPageCount(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 50: 1, 51: 2, 100: 2, 101: 3}
	for rows, want := range cases {
		if got := PageCount(rows); got != want {
			t.Errorf("PageCount(%d) = %d, want %d", rows, got, want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	name, err := NormalizeName("  Q1 report  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Q1 report" {
		t.Errorf("expected trimmed name, got %q", name)
	}

	long := make([]byte, MaxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	for _, bad := range []string{"", "   ", string(long)} {
		if _, err := NormalizeName(bad); err != ErrInvalidInput {
			t.Errorf("expected ErrInvalidInput for %q, got %v", bad, err)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	label, err := NormalizeLabel(" urgent ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != "urgent" {
		t.Errorf("expected trimmed label, got %q", label)
	}

	for _, bad := range []string{"", "a/b", "  "} {
		if _, err := NormalizeLabel(bad); err != ErrInvalidInput {
			t.Errorf("expected ErrInvalidInput for %q, got %v", bad, err)
		}
	}
}

func TestDocumentFilter_Matches(t *testing.T) {
	doc := &Document{Name: "Sales Q1.csv", Labels: []string{"finance"}}

	tests := []struct {
		name   string
		filter DocumentFilter
		want   bool
	}{
		{"empty filter", DocumentFilter{}, true},
		{"matching label", DocumentFilter{Label: "finance"}, true},
		{"other label", DocumentFilter{Label: "hr"}, false},
		{"query case-insensitive", DocumentFilter{Query: "sales"}, true},
		{"query miss", DocumentFilter{Query: "payroll"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(doc); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDocumentFilter_Less(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []*Document{
		{Name: "beta", Pages: 3, UploadedAt: base.Add(2 * time.Hour)},
		{Name: "Alpha", Pages: 1, UploadedAt: base},
		{Name: "gamma", Pages: 2, UploadedAt: base.Add(time.Hour)},
	}

	order := func(f DocumentFilter) []string {
		sorted := append([]*Document(nil), docs...)
		sort.SliceStable(sorted, func(i, j int) bool { return f.Less(sorted[i], sorted[j]) })
		names := make([]string, len(sorted))
		for i, d := range sorted {
			names[i] = d.Name
		}
		return names
	}

	tests := []struct {
		filter DocumentFilter
		want   []string
	}{
		{DocumentFilter{}, []string{"Alpha", "gamma", "beta"}},
		{DocumentFilter{Desc: true}, []string{"beta", "gamma", "Alpha"}},
		{DocumentFilter{Sort: SortByName}, []string{"Alpha", "beta", "gamma"}},
		{DocumentFilter{Sort: SortByPages, Desc: true}, []string{"beta", "gamma", "Alpha"}},
	}

	for _, tt := range tests {
		got := order(tt.filter)
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("filter %+v: expected %v, got %v", tt.filter, tt.want, got)
				break
			}
		}
	}
}

func TestSortField_Valid(t *testing.T) {
	for _, s := range []SortField{"", SortByDate, SortByName, SortByPages} {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if SortField("size").Valid() {
		t.Error("expected unknown sort field to be invalid")
	}
}
