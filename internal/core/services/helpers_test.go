package services

import (
	"io"
	"log/slog"
	"time"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven/mocks"
)

const salesCSV = "region,revenue\nnorth,10\nsouth,20\nnorth,15\n"

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	store *mocks.MockDocumentStore
	blobs *mocks.MockBlobStore
	cache *mocks.MockRowCache
	chats *mocks.MockChatStore
	queue *mocks.MockTaskQueue
	lock  *mocks.MockDistributedLock
}

func newTestEnv() *testEnv {
	return &testEnv{
		store: mocks.NewMockDocumentStore(),
		blobs: mocks.NewMockBlobStore(),
		cache: mocks.NewMockRowCache(),
		chats: mocks.NewMockChatStore(),
		queue: mocks.NewMockTaskQueue(),
		lock:  mocks.NewMockDistributedLock(),
	}
}

func (e *testEnv) analyzer() *Analyzer {
	return NewAnalyzer(AnalyzerConfig{
		Store:  e.store,
		Blobs:  e.blobs,
		Cache:  e.cache,
		Lock:   e.lock,
		Logger: discardLogger(),
	})
}

// documentService builds a service; withQueue selects queued or inline analysis
func (e *testEnv) documentService(withQueue bool) *documentService {
	cfg := DocumentServiceConfig{
		Store:          e.store,
		Blobs:          e.blobs,
		Cache:          e.cache,
		Chats:          e.chats,
		Lock:           e.lock,
		Logger:         discardLogger(),
		MaxUploadBytes: 1024,
		Now:            func() time.Time { return testNow },
	}
	if withQueue {
		cfg.Queue = e.queue
	}
	return NewDocumentService(cfg).(*documentService)
}

func (e *testEnv) chatService() *chatService {
	return NewChatService(ChatServiceConfig{
		Store:  e.store,
		Blobs:  e.blobs,
		Cache:  e.cache,
		Chats:  e.chats,
		Logger: discardLogger(),
		Now:    func() time.Time { return testNow },
	}).(*chatService)
}

// seedCSV stores a ready CSV document with content
func (e *testEnv) seedCSV(id, content string) *domain.Document {
	doc := &domain.Document{
		ID:         id,
		Name:       id + ".csv",
		Filename:   id + ".csv",
		StorageKey: id + ".csv",
		MimeType:   domain.MimeTypeCSV,
		Pages:      1,
		Status:     domain.DocumentStatusReady,
		UploadedAt: testNow.Add(-48 * time.Hour),
		UpdatedAt:  testNow.Add(-48 * time.Hour),
	}
	e.store.Put(doc)
	e.blobs.SetBlob(doc.StorageKey, content)
	return doc
}
