package handlers

import (
	"context"
	"net/http"

	"ragchat/internal/contextutil"
	"ragchat/internal/memory"
	"ragchat/internal/storage"
	"ragchat/internal/vectorstore"
)

// CollectionInspector reports collection-level point count and status.
// Satisfied by *vectorstore.QdrantStore.
type CollectionInspector interface {
	GetCollectionInfo(ctx context.Context, collection string) (*vectorstore.CollectionInfo, error)
}

// StatsHandler reports knowledge-base and pipeline statistics.
type StatsHandler struct {
	docs            storage.DocumentStore
	idx             DocumentIndex
	inspector       CollectionInspector
	sessions        *memory.Store
	generatorName   string
	embeddingModel  string
	collection      string
	rerankerEnabled bool
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(docs storage.DocumentStore, idx DocumentIndex, inspector CollectionInspector,
	sessions *memory.Store, generatorName, embeddingModel, collection string, rerankerEnabled bool) *StatsHandler {
	return &StatsHandler{
		docs:            docs,
		idx:             idx,
		inspector:       inspector,
		sessions:        sessions,
		generatorName:   generatorName,
		embeddingModel:  embeddingModel,
		collection:      collection,
		rerankerEnabled: rerankerEnabled,
	}
}

// StatsResponse represents the HTTP response payload for stats.
type StatsResponse struct {
	Documents        int      `json:"documents"`
	Chunks           int      `json:"chunks"`
	Sources          []string `json:"sources"`
	Sessions         int      `json:"sessions"`
	Generator        string   `json:"generator"`
	EmbeddingModel   string   `json:"embedding_model"`
	Collection       string   `json:"collection"`
	CollectionStatus string   `json:"collection_status"`
	VectorSize       int      `json:"vector_size"`
	RerankerEnabled  bool     `json:"reranker_enabled"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	docs, err := h.docs.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	info, err := h.inspector.GetCollectionInfo(ctx, h.collection)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get collection info", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Vector store unavailable")
		return
	}

	sources, err := h.idx.ListSources(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list sources", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Vector store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Documents:        len(docs),
		Chunks:           info.PointsCount,
		Sources:          sources,
		Sessions:         h.sessions.SessionCount(),
		Generator:        h.generatorName,
		EmbeddingModel:   h.embeddingModel,
		Collection:       h.collection,
		CollectionStatus: info.Status,
		VectorSize:       info.VectorSize,
		RerankerEnabled:  h.rerankerEnabled,
	})
}
