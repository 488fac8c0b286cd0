package usecase

import (
	"context"

	emaildomain "mail-ingest-backend/internal/ingest/domain"
)

// TokenSource acquires bearer tokens for the mail provider API.
type TokenSource interface {
	Acquire(ctx context.Context) (string, error)
}

// MessageFetcher resolves a notification resource into a full message.
type MessageFetcher interface {
	GetMessage(ctx context.Context, token, resource string) (*emaildomain.Message, error)
}

// DocumentChunker splits a document file into chunks.
type DocumentChunker interface {
	ChunkFile(path, sourceType string) ([]emaildomain.Chunk, error)
}

// IngestUsecase runs the fetch-and-store pipeline for webhook notifications.
type IngestUsecase interface {
	// Start launches the background workers.
	Start()
	// Stop drains the queue and stops the workers.
	Stop()
	// Enqueue schedules asynchronous processing of a notification resource.
	// It never blocks the caller.
	Enqueue(resource string)
	// Ingest chunks, embeds and records a fetched message.
	Ingest(ctx context.Context, msg *emaildomain.Message) error
}
