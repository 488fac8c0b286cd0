package chunker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSplitFixed(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
		wantCount int
	}{
		{
			name:      "short text single chunk",
			text:      "hello",
			chunkSize: 100,
			overlap:   20,
			wantCount: 1,
		},
		{
			name:      "exact fit single chunk",
			text:      strings.Repeat("a", 100),
			chunkSize: 100,
			overlap:   20,
			wantCount: 1,
		},
		{
			name:      "overlapping chunks",
			text:      strings.Repeat("a", 250),
			chunkSize: 100,
			overlap:   20,
			wantCount: 3, // steps of 80: [0,100) [80,180) [160,250)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitFixed(tt.text, tt.chunkSize, tt.overlap)
			assert.Len(t, chunks, tt.wantCount)
			for _, chunk := range chunks {
				assert.LessOrEqual(t, len([]rune(chunk)), tt.chunkSize)
			}
		})
	}
}

func TestSplitFixedOverlapPreservesBoundaryContext(t *testing.T) {
	text := strings.Repeat("x", 90) + strings.Repeat("y", 90)
	chunks := splitFixed(text, 100, 20)

	require.Len(t, chunks, 2)
	// The tail of chunk 1 must reappear at the head of chunk 2.
	assert.Equal(t, chunks[0][80:], chunks[1][:20])
}

func TestSplitFixedMultibyteSafe(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 30)
	for _, chunk := range splitFixed(text, 50, 10) {
		assert.True(t, len(chunk) > 0)
		for _, r := range chunk {
			assert.NotEqual(t, '�', r, "chunk boundary cut a rune")
		}
	}
}

func TestChunkFileAttachesBaseMetadata(t *testing.T) {
	path := writeTempDoc(t, strings.Repeat("some email text ", 20))
	c := New("fixed", 50, 10)

	chunks, err := c.ChunkFile(path, "email")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, chunk := range chunks {
		assert.Equal(t, "email", chunk.Metadata["source_type"])
		assert.Equal(t, i, chunk.Metadata["chunk_index"])
		assert.NotEmpty(t, chunk.Text)
	}
}

func TestChunkFileParagraphMethod(t *testing.T) {
	doc := "First paragraph.\n\nSecond paragraph, a bit longer than the first one.\n\nThird."
	path := writeTempDoc(t, doc)
	c := New("paragraph", 60, 0)

	chunks, err := c.ChunkFile(path, "email")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var joined []string
	for _, chunk := range chunks {
		joined = append(joined, chunk.Text)
	}
	all := strings.Join(joined, "\n\n")
	assert.Contains(t, all, "First paragraph.")
	assert.Contains(t, all, "Third.")
}

func TestChunkFileMissingFile(t *testing.T) {
	c := New("fixed", 50, 10)
	_, err := c.ChunkFile(filepath.Join(t.TempDir(), "missing.txt"), "email")
	assert.Error(t, err)
}

func TestNewClampsBadSettings(t *testing.T) {
	c := New("fixed", -1, 1000)
	assert.Equal(t, 1000, c.chunkSize)
	assert.Equal(t, 0, c.overlap, "overlap >= chunkSize is discarded")
}
