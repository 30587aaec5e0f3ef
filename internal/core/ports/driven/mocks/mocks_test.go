package mocks

import "github.com/custodia-labs/docdash/internal/core/ports/driven"

// Verify interface compliance
var (
	_ driven.DocumentStore   = (*MockDocumentStore)(nil)
	_ driven.ChatStore       = (*MockChatStore)(nil)
	_ driven.BlobStore       = (*MockBlobStore)(nil)
	_ driven.RowCache        = (*MockRowCache)(nil)
	_ driven.TaskQueue       = (*MockTaskQueue)(nil)
	_ driven.DistributedLock = (*MockDistributedLock)(nil)
)
