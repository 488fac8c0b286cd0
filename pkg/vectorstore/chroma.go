package vectorstore

import (
	"context"
	"fmt"
	"os"
	"strings"

	emaildomain "mail-ingest-backend/internal/ingest/domain"
	"mail-ingest-backend/pkg/config"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
)

// ChromaStore appends chunks to a Chroma Cloud collection instead of the
// local index file. The collection embeds documents server-side through the
// configured Gemini embedding function, so the indexPath argument only
// identifies the source type here.
type ChromaStore struct {
	client     chroma.Client
	collection chroma.Collection
}

func NewChromaStore(cfg *config.Config, collectionName string) (*ChromaStore, error) {
	if cfg.ChromaAPIKey == "" {
		return nil, fmt.Errorf("CHROMA_API_KEY is required")
	}
	if cfg.GeminiAPIKey != "" {
		os.Setenv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	}

	embedFunc, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithEnvAPIKey(),
		gemini.WithDefaultModel("text-embedding-004"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}

	var client chroma.Client
	if cfg.ChromaDatabase != "" && cfg.ChromaTenant != "" {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithDatabaseAndTenant(cfg.ChromaDatabase, cfg.ChromaTenant),
		)
	} else {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		context.Background(),
		collectionName,
		chroma.WithEmbeddingFunctionCreate(embedFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", collectionName, err)
	}

	return &ChromaStore{client: client, collection: collection}, nil
}

func (s *ChromaStore) AppendChunks(ctx context.Context, indexPath string, chunks []emaildomain.Chunk) error {
	for _, chunk := range chunks {
		metadata, err := chroma.NewDocumentMetadataFromMap(flattenMetadata(chunk.Metadata))
		if err != nil {
			return fmt.Errorf("failed to create metadata: %w", err)
		}

		err = s.collection.Add(
			ctx,
			chroma.WithIDs(chroma.DocumentID(entryID(chunk))),
			chroma.WithMetadatas(metadata),
			chroma.WithTexts(chunk.Text),
		)
		if err != nil {
			return fmt.Errorf("failed to add chunk to collection: %w", err)
		}
	}
	return nil
}

// flattenMetadata joins list values; Chroma metadata only takes scalars.
func flattenMetadata(metadata map[string]interface{}) map[string]interface{} {
	flat := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		if list, ok := v.([]string); ok {
			flat[k] = strings.Join(list, ", ")
			continue
		}
		flat[k] = v
	}
	return flat
}
