package vectorstore

import (
	"context"

	emaildomain "mail-ingest-backend/internal/ingest/domain"
)

// Store is an append-only index of embedded chunks. Appending never rewrites
// prior entries, so a failed append cannot corrupt what is already stored.
type Store interface {
	AppendChunks(ctx context.Context, indexPath string, chunks []emaildomain.Chunk) error
}
