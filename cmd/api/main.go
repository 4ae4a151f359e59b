package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"ragchat/internal/chunker"
	"ragchat/internal/config"
	"ragchat/internal/eval"
	"ragchat/internal/http"
	"ragchat/internal/index"
	"ragchat/internal/ingest"
	"ragchat/internal/llm"
	"ragchat/internal/memory"
	"ragchat/internal/rag"
	"ragchat/internal/rerank"
	"ragchat/internal/storage"
	"ragchat/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("Invalid log level %q: %v", cfg.LogLevel, err)
	}
	opts := &slog.HandlerOptions{
		Level: level,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	documentRepo := storage.NewDocumentRepo(db)
	evalRepo := storage.NewEvalRepo(db)

	// Initialize Qdrant vector store
	ctx := context.Background()

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	// Create the vector index over the collection
	idx := index.New(embedder, vectorStore, cfg.QdrantCollection)

	// Reranking is optional; without a base URL hits pass through in
	// retrieval order.
	var scorer rerank.Scorer
	if cfg.RerankBaseURL != "" {
		scorer = rerank.NewHTTPScorer(cfg.RerankBaseURL, cfg.LLMAPIKey, cfg.RerankModelName)
		slog.Info("Reranker enabled", "base_url", cfg.RerankBaseURL, "model", cfg.RerankModelName)
	} else {
		slog.Info("Reranker disabled, using retrieval order")
	}
	reranker := rerank.New(scorer)

	// Select the generation backend once at startup
	var generator llm.Generator
	switch cfg.LLMProvider {
	case "chat":
		generator = llm.NewChatGenerator(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	case "ollama":
		generator = llm.NewOllamaGenerator(cfg.LLMBaseURL, cfg.LLMModelName)
	default:
		generator = llm.NewTemplateGenerator(rag.NoContextMarker)
	}
	slog.Info("Generation backend selected", "backend", generator.Name())

	sessions := memory.NewStore(cfg.MaxTurns)
	engine := rag.NewPipeline(idx, reranker, generator, sessions)
	slog.Info("RAG pipeline initialized")

	// Ingestion pipeline for uploads and the optional directory watcher
	splitter := chunker.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	ingestService := ingest.NewService(ingest.NewLoader(), splitter, idx, documentRepo)

	if cfg.WatchFiles {
		watcher, err := ingest.NewWatcher(cfg.UploadDir, ingestService)
		if err != nil {
			log.Fatalf("Failed to watch upload directory: %v", err)
		}
		go func() {
			defer func() {
				_ = watcher.Close()
			}()
			watcher.Run(context.Background())
		}()
	}

	// Create router with dependencies
	deps := &http.Deps{
		Engine:        engine,
		IngestService: ingestService,
		Documents:     documentRepo,
		Evaluations:   evalRepo,
		Evaluator:     eval.New(),
		Sessions:      sessions,
		Index:         idx,
		Inspector:     vectorStore,
		Health:        vectorStore,

		UploadDir:       cfg.UploadDir,
		Collection:      cfg.QdrantCollection,
		GeneratorName:   generator.Name(),
		EmbeddingModel:  cfg.EmbeddingModelName,
		RerankerEnabled: reranker.Enabled(),
		DefaultTopK:     cfg.DefaultTopK,
		DefaultRerankK:  cfg.DefaultRerankK,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "provider", cfg.LLMProvider, "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
