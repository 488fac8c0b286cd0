package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	emaildomain "mail-ingest-backend/internal/ingest/domain"
	"mail-ingest-backend/pkg/embedding"
)

// indexEntry is one line of the on-disk index file.
type indexEntry struct {
	ID       string                 `json:"id"`
	Model    string                 `json:"model"`
	Vector   []float32              `json:"vector"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// LocalStore keeps embedded chunks in a single growable JSON-lines file per
// source type. The file is created on first append and extended afterwards.
type LocalStore struct {
	embedder embedding.Provider
}

func NewLocalStore(embedder embedding.Provider) *LocalStore {
	return &LocalStore{embedder: embedder}
}

func (s *LocalStore) AppendChunks(ctx context.Context, indexPath string, chunks []emaildomain.Chunk) error {
	// Embed everything before touching the file so an embedding failure
	// leaves the index untouched.
	entries := make([]indexEntry, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := s.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embed chunk: %w", err)
		}
		entries = append(entries, indexEntry{
			ID:       entryID(chunk),
			Model:    s.embedder.Model(),
			Vector:   vector,
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
		})
	}

	f, err := os.OpenFile(indexPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open index %s: %w", indexPath, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("append to index %s: %w", indexPath, err)
		}
	}
	return nil
}

func entryID(chunk emaildomain.Chunk) string {
	emailID, _ := chunk.Metadata["email_id"].(string)
	index, _ := chunk.Metadata["chunk_index"].(int)
	return fmt.Sprintf("%s-%d", emailID, index)
}
