package config

import (
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Microsoft identity / Graph
	TenantID     string
	ClientID     string
	ClientSecret string
	TargetUserID string
	CallbackURL  string
	ClientState  string

	// Ingestion
	StorageDir        string
	ChunkingMethod    string
	ChunkSize         int
	ChunkOverlap      int
	IngestWorkerCount int

	// Embedding
	EmbeddingModelType string
	OllamaBaseURL      string
	OllamaEmbedModel   string
	GeminiAPIKey       string

	// Vector store
	VectorStoreType string
	ChromaAPIKey    string
	ChromaTenant    string
	ChromaDatabase  string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "8000"),
		TenantID:     getEnv("AZURE_TENANT_ID", ""),
		ClientID:     getEnv("AZURE_CLIENT_ID", ""),
		ClientSecret: getEnv("AZURE_CLIENT_SECRET", ""),
		TargetUserID: getEnv("TARGET_USER_ID", ""),
		CallbackURL:  getEnv("WEBHOOK_CALLBACK_URL", ""),
		// clientState is echoed back by Graph on every notification; a fresh
		// secret per boot is fine because recovery recreates the subscription.
		ClientState: getEnv("WEBHOOK_CLIENT_STATE", uuid.NewString()),

		StorageDir:        getEnv("STORAGE_DIR", "vector_stores"),
		ChunkingMethod:    getEnv("CHUNKING_METHOD", "fixed"),
		ChunkSize:         getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:      getEnvInt("CHUNK_OVERLAP", 200),
		IngestWorkerCount: getEnvInt("INGEST_WORKER_COUNT", 3),

		EmbeddingModelType: getEnv("EMBEDDING_MODEL_TYPE", "ollama"),
		OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaEmbedModel:   getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),

		VectorStoreType: getEnv("VECTOR_STORE_TYPE", "local"),
		ChromaAPIKey:    getEnv("CHROMA_API_KEY", ""),
		ChromaTenant:    getEnv("CHROMA_TENANT", ""),
		ChromaDatabase:  getEnv("CHROMA_DATABASE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
