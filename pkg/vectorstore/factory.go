package vectorstore

import (
	"fmt"

	"mail-ingest-backend/pkg/config"
	"mail-ingest-backend/pkg/embedding"
)

// NewStore selects the vector-store backend from VECTOR_STORE_TYPE.
func NewStore(cfg *config.Config, embedder embedding.Provider, collectionName string) (Store, error) {
	switch cfg.VectorStoreType {
	case "local":
		return NewLocalStore(embedder), nil

	case "chroma":
		return NewChromaStore(cfg, collectionName)

	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.VectorStoreType)
	}
}
