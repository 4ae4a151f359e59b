// Package http wires the API routes and request middleware.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ragchat/internal/eval"
	"ragchat/internal/handlers"
	"ragchat/internal/ingest"
	"ragchat/internal/memory"
	"ragchat/internal/rag"
	"ragchat/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine        rag.Engine
	IngestService *ingest.Service
	Documents     storage.DocumentStore
	Evaluations   storage.EvalStore
	Evaluator     *eval.Evaluator
	Sessions      *memory.Store
	Index         handlers.DocumentIndex
	Inspector     handlers.CollectionInspector
	Health        handlers.CollectionChecker

	UploadDir       string
	Collection      string
	GeneratorName   string
	EmbeddingModel  string
	RerankerEnabled bool
	DefaultTopK     int
	DefaultRerankK  int
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.Engine, deps.DefaultTopK, deps.DefaultRerankK)
	uploadHandler := handlers.NewUploadHandler(deps.IngestService, deps.Documents, deps.UploadDir)
	evaluateHandler := handlers.NewEvaluateHandler(deps.Evaluator, deps.Evaluations)
	evaluationsHandler := handlers.NewEvaluationsHandler(deps.Evaluations)
	historyHandler := handlers.NewHistoryHandler(deps.Sessions)
	clearHandler := handlers.NewClearHandler(deps.Sessions)
	documentsHandler := handlers.NewDocumentsHandler(deps.Documents)
	documentDetailHandler := handlers.NewDocumentDetailHandler(deps.Documents)
	deleteHandler := handlers.NewDeleteDocumentHandler(deps.Index, deps.Documents)
	statsHandler := handlers.NewStatsHandler(deps.Documents, deps.Index, deps.Inspector,
		deps.Sessions, deps.GeneratorName, deps.EmbeddingModel, deps.Collection, deps.RerankerEnabled)
	healthHandler := handlers.NewHealthHandler(deps.Health, deps.Collection, deps.GeneratorName)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", chatHandler)
		r.Method(http.MethodPost, "/upload", uploadHandler)
		r.Method(http.MethodPost, "/evaluate", evaluateHandler)
		r.Method(http.MethodGet, "/evaluations", evaluationsHandler)
		r.Method(http.MethodGet, "/history", historyHandler)
		r.Method(http.MethodPost, "/clear", clearHandler)
		r.Method(http.MethodGet, "/documents", documentsHandler)
		r.Method(http.MethodGet, "/documents/{source}", documentDetailHandler)
		r.Method(http.MethodDelete, "/documents/{source}", deleteHandler)
		r.Method(http.MethodGet, "/stats", statsHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
