package chunker

import (
	"fmt"
	"os"
	"strings"

	emaildomain "mail-ingest-backend/internal/ingest/domain"
)

// Chunker splits a document file into bounded text segments. The split method
// is configuration-selected; callers treat the output as opaque chunks.
type Chunker struct {
	method    string
	chunkSize int
	overlap   int
}

func New(method string, chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &Chunker{
		method:    method,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// ChunkFile reads the file at path and splits its contents. Every chunk
// carries base metadata (source type, chunk index); callers enrich it with
// document-level fields before embedding.
func (c *Chunker) ChunkFile(path, sourceType string) ([]emaildomain.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text := string(data)

	var parts []string
	switch c.method {
	case "paragraph":
		parts = splitParagraphs(text, c.chunkSize, c.overlap)
	default: // "fixed"
		parts = splitFixed(text, c.chunkSize, c.overlap)
	}

	chunks := make([]emaildomain.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, emaildomain.Chunk{
			Text: part,
			Metadata: map[string]interface{}{
				"source_type": sourceType,
				"chunk_index": i,
			},
		})
	}
	return chunks, nil
}

// splitFixed slices text into chunks of approximately chunkSize characters
// with an overlap to preserve context at boundaries. Rune-based so multi-byte
// text is never cut mid-character.
func splitFixed(text string, chunkSize, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// splitParagraphs groups blank-line-separated paragraphs up to chunkSize,
// falling back to fixed splitting for any single oversized paragraph.
func splitParagraphs(text string, chunkSize, overlap int) []string {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len([]rune(p)) > chunkSize {
			flush()
			chunks = append(chunks, splitFixed(p, chunkSize, overlap)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(p)+2 > chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
