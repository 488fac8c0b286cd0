package main

import (
	"log"
	"path/filepath"

	api "mail-ingest-backend/cmd/api"
	"mail-ingest-backend/internal/ingest/repository"
	"mail-ingest-backend/internal/ingest/usecase"
	"mail-ingest-backend/internal/subscription"
	"mail-ingest-backend/pkg/chunker"
	"mail-ingest-backend/pkg/config"
	"mail-ingest-backend/pkg/embedding"
	"mail-ingest-backend/pkg/graph"
	"mail-ingest-backend/pkg/vectorstore"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Embedding model and vector store (factory-selected)
	embedder, err := embedding.NewProvider(cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedding provider: ", err)
	}

	store, err := vectorstore.NewStore(cfg, embedder, "email")
	if err != nil {
		log.Fatal("Failed to initialize vector store: ", err)
	}

	// Graph API access
	tokens := graph.NewTokenProvider(cfg.TenantID, cfg.ClientID, cfg.ClientSecret)
	graphClient := graph.NewClient(cfg.TargetUserID, cfg.CallbackURL, cfg.ClientState)

	// Ingestion pipeline
	baseDir := filepath.Join(cfg.StorageDir, "email_data")
	metadataRepo := repository.NewMetadataRepository(filepath.Join(baseDir, usecase.MetaFileName))
	documentChunker := chunker.New(cfg.ChunkingMethod, cfg.ChunkSize, cfg.ChunkOverlap)

	ingestUsecase := usecase.NewIngestUsecase(tokens, graphClient, documentChunker, store, metadataRepo, baseDir, cfg.IngestWorkerCount)
	ingestUsecase.Start()
	defer ingestUsecase.Stop()

	// Subscription auto-renew loop
	scheduler := subscription.NewScheduler(graphClient, tokens)
	scheduler.Start()
	defer scheduler.Stop()

	// Start server
	handler := api.NewHandler(cfg, ingestUsecase)
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
