package embedding

import (
	"fmt"

	"mail-ingest-backend/pkg/config"
)

// NewProvider is the factory function - switch embedding model by changing
// EMBEDDING_MODEL_TYPE.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.EmbeddingModelType {
	case "ollama":
		return NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaEmbedModel), nil

	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for gemini embeddings")
		}
		return NewGeminiProvider(cfg.GeminiAPIKey), nil

	default:
		return nil, fmt.Errorf("unknown embedding model type %q", cfg.EmbeddingModelType)
	}
}
