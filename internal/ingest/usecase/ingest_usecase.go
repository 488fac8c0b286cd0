package usecase

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	emaildomain "mail-ingest-backend/internal/ingest/domain"
	"mail-ingest-backend/internal/ingest/repository"
	"mail-ingest-backend/pkg/htmlutil"
	"mail-ingest-backend/pkg/vectorstore"
)

const (
	sourceType    = "email"
	indexFileName = "index_email.jsonl"

	// MetaFileName is the shared metadata file kept next to the index.
	MetaFileName = "metadata.json"
)

// ingestJob is one notification resource waiting to be fetched and stored.
type ingestJob struct {
	Resource string
}

type ingestUsecase struct {
	tokens   TokenSource
	fetcher  MessageFetcher
	chunker  DocumentChunker
	store    vectorstore.Store
	metadata repository.MetadataRepository

	baseDir   string
	indexPath string

	jobQueue    chan ingestJob
	workerWg    sync.WaitGroup
	workerCount int
	started     bool
	mu          sync.Mutex
}

// NewIngestUsecase wires the pipeline for one source-type storage directory.
func NewIngestUsecase(
	tokens TokenSource,
	fetcher MessageFetcher,
	chunker DocumentChunker,
	store vectorstore.Store,
	metadata repository.MetadataRepository,
	baseDir string,
	workerCount int,
) IngestUsecase {
	if workerCount <= 0 {
		workerCount = 3
	}
	return &ingestUsecase{
		tokens:      tokens,
		fetcher:     fetcher,
		chunker:     chunker,
		store:       store,
		metadata:    metadata,
		baseDir:     baseDir,
		indexPath:   filepath.Join(baseDir, indexFileName),
		jobQueue:    make(chan ingestJob, 100),
		workerCount: workerCount,
	}
}

func (u *ingestUsecase) Start() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.started {
		return
	}
	for i := 0; i < u.workerCount; i++ {
		u.workerWg.Add(1)
		go u.worker(i)
	}
	u.started = true
	log.Printf("[Ingest] Started %d workers", u.workerCount)
}

func (u *ingestUsecase) Stop() {
	close(u.jobQueue)
	u.workerWg.Wait()
	log.Println("[Ingest] All workers stopped")
}

func (u *ingestUsecase) Enqueue(resource string) {
	job := ingestJob{Resource: resource}
	select {
	case u.jobQueue <- job:
	default:
		// Queue is full; fall back to a dedicated goroutine rather than
		// dropping the notification or blocking the webhook response.
		log.Printf("[Ingest] Job queue full, processing %s out of band", resource)
		go u.process(job)
	}
}

func (u *ingestUsecase) worker(id int) {
	defer u.workerWg.Done()
	for job := range u.jobQueue {
		u.process(job)
	}
	log.Printf("[Ingest] Worker %d stopped", id)
}

// process runs fetch + ingest for one notification. Nothing may escape this
// boundary: every failure is terminal-and-logged for the message.
func (u *ingestUsecase) process(job ingestJob) {
	ctx := context.Background()

	msg := u.fetch(ctx, job.Resource)
	if msg == nil {
		log.Printf("[Ingest] Email not fetched for resource %s, abandoning", job.Resource)
		return
	}

	if err := u.Ingest(ctx, msg); err != nil {
		log.Printf("[Ingest] Failed to ingest email %s: %v", msg.ID, err)
	}
}

// fetch acquires a credential and resolves the resource. Errors are logged,
// never raised: a failed fetch simply abandons the notification.
func (u *ingestUsecase) fetch(ctx context.Context, resource string) *emaildomain.Message {
	token, err := u.tokens.Acquire(ctx)
	if err != nil {
		log.Printf("[Ingest] Auth token missing: %v", err)
		return nil
	}

	msg, err := u.fetcher.GetMessage(ctx, token, resource)
	if err != nil {
		log.Printf("[Ingest] Fetch error for %s: %v", resource, err)
		return nil
	}
	return msg
}

func (u *ingestUsecase) Ingest(ctx context.Context, msg *emaildomain.Message) error {
	plainBody := htmlutil.StripTags(msg.BodyHTML)
	if strings.TrimSpace(plainBody) == "" {
		log.Printf("[Ingest] Email %s has no body content. Skipping.", msg.ID)
		return nil
	}

	// Gate on the metadata record before embedding so a re-delivered
	// notification does not duplicate chunks in the index.
	if exists, err := u.metadata.Exists(msg.ID); err == nil && exists {
		log.Printf("[Ingest] Email %s already ingested. Skipping.", msg.ID)
		return nil
	}

	log.Printf("[Ingest] Storing %s from %s | Subject: %s", msg.ID, msg.SenderAddress, msg.Subject)

	if err := os.MkdirAll(u.baseDir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	timestamp := time.Now().UTC().Format("20060102_150405")
	tempPath := filepath.Join(u.baseDir, fmt.Sprintf("email_%s_%s.txt", safeFileID(msg.ID), timestamp))
	if err := os.WriteFile(tempPath, []byte(plainBody), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	// Removed on every exit path, not just success.
	defer os.Remove(tempPath)

	chunks, err := u.chunker.ChunkFile(tempPath, sourceType)
	if err != nil {
		return fmt.Errorf("chunk email %s: %w", msg.ID, err)
	}

	for i := range chunks {
		enrichChunk(&chunks[i], msg, timestamp)
	}

	if err := u.store.AppendChunks(ctx, u.indexPath, chunks); err != nil {
		return fmt.Errorf("index email %s: %w", msg.ID, err)
	}

	record := emaildomain.MetadataRecord{
		EmailID:        msg.ID,
		Subject:        msg.Subject,
		Sender:         msg.SenderAddress,
		SenderName:     msg.SenderName,
		Timestamp:      timestamp,
		CC:             msg.CC,
		HasAttachments: msg.HasAttachments,
		ChunkCount:     len(chunks),
		IndexPath:      u.indexPath,
		UploadDate:     time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := u.metadata.Append(record); err != nil {
		return fmt.Errorf("record metadata for %s: %w", msg.ID, err)
	}

	log.Printf("[Ingest] Email %s stored successfully (%d chunks)", msg.ID, len(chunks))
	return nil
}

// enrichChunk attaches the message-level fields every chunk carries into the
// index.
func enrichChunk(chunk *emaildomain.Chunk, msg *emaildomain.Message, timestamp string) {
	if chunk.Metadata == nil {
		chunk.Metadata = make(map[string]interface{})
	}
	chunk.Metadata["email_id"] = msg.ID
	chunk.Metadata["subject"] = msg.Subject
	chunk.Metadata["sender"] = msg.SenderAddress
	chunk.Metadata["sender_name"] = msg.SenderName
	chunk.Metadata["timestamp"] = timestamp
	chunk.Metadata["cc"] = msg.CC
	chunk.Metadata["hasAttachments"] = msg.HasAttachments
}

// safeFileID makes a provider message id usable in a file name.
func safeFileID(id string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(id)
}
