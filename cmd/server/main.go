package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"repoquery/internal/config"
	"repoquery/internal/database"
	"repoquery/internal/github"
	"repoquery/internal/handler"
	"repoquery/internal/repository"
	"repoquery/internal/service"
)

// main is the single entry-point for the REST API.
func main() {
	cfg := config.Load()
	log.Printf("Configuration loaded:")
	log.Printf("  - Embedding provider: %s", cfg.EmbeddingProvider)
	log.Printf("  - Vector backend: %s", cfg.VectorBackend)
	log.Printf("  - Chat model: %s", cfg.ChatModel)

	embedder, cleanup, err := newEmbedder(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}
	defer cleanup()

	store, storeCleanup, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize vector store: %v", err)
	}
	defer storeCleanup()

	gh := github.NewClient(cfg.GitHubToken)

	llm, err := service.NewOpenAIClient(service.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.ChatModel,
		Temperature: cfg.ChatTemperature,
	})
	if err != nil {
		log.Fatalf("Failed to initialize chat client: %v", err)
	}

	ingestSvc := service.NewIngestService(store, embedder, gh, service.IngestConfig{
		ChunkMin: cfg.ChunkMin,
		ChunkMax: cfg.ChunkMax,
		MaxFiles: cfg.MaxFiles,
	})
	searchSvc := service.NewSearchService(store, embedder, gh, service.SearchConfig{
		ChunkMin: cfg.ChunkMin,
		ChunkMax: cfg.ChunkMax,
		MaxFiles: cfg.MaxFiles,
	})
	conversationSvc := service.NewConversationService(llm, searchSvc, service.ConversationConfig{
		RelevantFiles:  cfg.RelevantFiles,
		RelevantChunks: cfg.RelevantChunks,
		MaxSteps:       cfg.MaxSteps,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout: cfg.ReadTimeout,
		// WriteTimeout stays zero: SSE responses are open-ended.
	})
	app.Use(logger.New())
	app.Use(cors.New())

	handler.RegisterRoutes(app, ingestSvc, conversationSvc, store, gh)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// newEmbedder picks the embedding provider from configuration. The
// cleanup func releases provider resources and is always non-nil.
func newEmbedder(cfg config.Config) (service.Embedder, func(), error) {
	switch cfg.EmbeddingProvider {
	case "vertex":
		v, err := service.NewVertexEmbedder(context.Background(), service.VertexConfig{
			ProjectID: cfg.ProjectID,
			Location:  cfg.Location,
			Model:     cfg.EmbeddingModel,
			Dimension: cfg.EmbeddingDimension,
		})
		if err != nil {
			return nil, func() {}, err
		}
		return v, func() { _ = v.Close() }, nil

	case "local":
		return service.NewLocalEmbedder(cfg.EmbeddingDimension), func() {}, nil

	default:
		log.Fatalf("unknown EMBEDDING_PROVIDER %q (want vertex or local)", cfg.EmbeddingProvider)
		return nil, nil, nil
	}
}

// newStore picks the vector store backend from configuration.
func newStore(cfg config.Config) (service.EmbeddingStore, func(), error) {
	switch cfg.VectorBackend {
	case "qdrant":
		return repository.NewQdrant(repository.QdrantConfig{
			URL:       cfg.QdrantURL,
			APIKey:    cfg.QdrantAPIKey,
			Dimension: cfg.EmbeddingDimension,
		}), func() {}, nil

	case "mongo":
		client, ctx, cancel, err := database.NewMongo(cfg.MongoURI)
		if err != nil {
			return nil, func() {}, err
		}
		cleanup := func() {
			_ = client.Disconnect(ctx)
			cancel()
		}
		return repository.NewMongo(client.Database(cfg.DBName)), cleanup, nil

	case "memory":
		return repository.NewMemory(), func() {}, nil

	default:
		log.Fatalf("unknown VECTOR_BACKEND %q (want qdrant, mongo or memory)", cfg.VectorBackend)
		return nil, nil, nil
	}
}
