package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/tabular"
)

func TestChatService_AskAverage(t *testing.T) {
	env := newTestEnv()
	env.seedCSV("doc-1", salesCSV)
	svc := env.chatService()

	resp, err := svc.Ask(context.Background(), "doc-1", domain.ChatRequest{Message: "What's the average revenue?"})
	require.NoError(t, err)
	assert.Equal(t, "The average revenue is 15.00", resp.Text)
	assert.Nil(t, resp.Visualization)
}

func TestChatService_AskBarChart(t *testing.T) {
	env := newTestEnv()
	env.seedCSV("doc-1", salesCSV)
	svc := env.chatService()

	resp, err := svc.Ask(context.Background(), "doc-1", domain.ChatRequest{Message: "show a bar chart"})
	require.NoError(t, err)

	assert.Equal(t, "Here's a bar chart showing revenue by region", resp.Text)
	require.NotNil(t, resp.Visualization)
	want := []domain.BarPoint{
		{Category: "north", Value: 25},
		{Category: "south", Value: 20},
	}
	if diff := cmp.Diff(want, resp.Visualization.Data); diff != "" {
		t.Errorf("bar data mismatch (-want +got):\n%s", diff)
	}
}

func TestChatService_RecordsHistory(t *testing.T) {
	env := newTestEnv()
	env.seedCSV("doc-1", salesCSV)
	svc := env.chatService()

	resp, err := svc.Ask(context.Background(), "doc-1", domain.ChatRequest{Message: "bar chart please"})
	require.NoError(t, err)

	history, err := svc.History(context.Background(), "doc-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, domain.ChatRoleUser, history[0].Role)
	assert.Equal(t, "bar chart please", history[0].Text)
	assert.Nil(t, history[0].Visualization)
	assert.Equal(t, domain.ChatRoleAssistant, history[1].Role)
	assert.Equal(t, resp.Text, history[1].Text)
	assert.Equal(t, resp.Visualization, history[1].Visualization)
	assert.Equal(t, testNow, history[1].CreatedAt)
	assert.NotEqual(t, history[0].ID, history[1].ID)

	limited, err := svc.History(context.Background(), "doc-1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, domain.ChatRoleAssistant, limited[0].Role)

	require.NoError(t, svc.ClearHistory(context.Background(), "doc-1"))
	history, err = svc.History(context.Background(), "doc-1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChatService_HistoryFailureDoesNotFailAnswer(t *testing.T) {
	env := newTestEnv()
	env.seedCSV("doc-1", salesCSV)
	env.chats.AppendErr = errors.New("db down")
	svc := env.chatService()

	resp, err := svc.Ask(context.Background(), "doc-1", domain.ChatRequest{Message: "count"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Here are the counts by region")
}

func TestChatService_UsesRowCache(t *testing.T) {
	env := newTestEnv()
	env.seedCSV("doc-1", salesCSV)
	svc := env.chatService()

	for i := 0; i < 3; i++ {
		_, err := svc.Ask(context.Background(), "doc-1", domain.ChatRequest{Message: "average"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, env.blobs.OpenCalls)
}

func TestChatService_PrefersCachedRows(t *testing.T) {
	env := newTestEnv()
	env.seedCSV("doc-1", salesCSV)
	require.NoError(t, env.cache.Set(context.Background(), "doc-1", &tabular.Table{
		Columns: []string{"price"},
		Rows:    []tabular.Row{{"price": "4"}},
	}, 0))
	svc := env.chatService()

	resp, err := svc.Ask(context.Background(), "doc-1", domain.ChatRequest{Message: "mean"})
	require.NoError(t, err)
	assert.Equal(t, "The average price is 4.00", resp.Text)
	assert.Zero(t, env.blobs.OpenCalls)
}

func TestChatService_CacheErrorFallsBackToFile(t *testing.T) {
	env := newTestEnv()
	env.seedCSV("doc-1", salesCSV)
	env.cache.GetErr = errors.New("redis down")
	svc := env.chatService()

	resp, err := svc.Ask(context.Background(), "doc-1", domain.ChatRequest{Message: "average"})
	require.NoError(t, err)
	assert.Equal(t, "The average revenue is 15.00", resp.Text)
}

func TestChatService_AskErrors(t *testing.T) {
	env := newTestEnv()
	env.seedCSV("doc-1", salesCSV)
	env.store.Put(&domain.Document{ID: "pdf", Filename: "a.pdf", StorageKey: "pdf.pdf", MimeType: "application/pdf"})
	env.store.Put(&domain.Document{ID: "gone", Filename: "g.csv", StorageKey: "gone.csv", MimeType: domain.MimeTypeCSV})
	svc := env.chatService()

	_, err := svc.Ask(context.Background(), "doc-1", domain.ChatRequest{Message: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Ask(context.Background(), "missing", domain.ChatRequest{Message: "average"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Ask(context.Background(), "pdf", domain.ChatRequest{Message: "average"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	// A record without its file is a server fault, not an unknown document
	_, err = svc.Ask(context.Background(), "gone", domain.ChatRequest{Message: "average"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, env.chats.All())
}

func TestChatService_HistoryUnknownDocument(t *testing.T) {
	svc := newTestEnv().chatService()

	_, err := svc.History(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.ClearHistory(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
