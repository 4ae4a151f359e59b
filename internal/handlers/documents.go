package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ragchat/internal/contextutil"
	"ragchat/internal/index"
	"ragchat/internal/storage"
)

// DocumentIndex is the slice of the vector index the document and stats
// endpoints use. Satisfied by *index.Index.
type DocumentIndex interface {
	DeleteSource(ctx context.Context, source string) error
	ListSources(ctx context.Context) ([]string, error)
}

// DocumentsHandler lists the ingested documents.
type DocumentsHandler struct {
	docs storage.DocumentStore
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(docs storage.DocumentStore) *DocumentsHandler {
	return &DocumentsHandler{docs: docs}
}

// DocumentsResponse represents the HTTP response payload for the listing.
type DocumentsResponse struct {
	Documents []storage.Document `json:"documents"`
	Count     int                `json:"count"`
}

func (h *DocumentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	docs, err := h.docs.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, DocumentsResponse{
		Documents: docs,
		Count:     len(docs),
	})
}

// DocumentDetailHandler returns the catalog entry for one document.
type DocumentDetailHandler struct {
	docs storage.DocumentStore
}

// NewDocumentDetailHandler creates a new DocumentDetailHandler.
func NewDocumentDetailHandler(docs storage.DocumentStore) *DocumentDetailHandler {
	return &DocumentDetailHandler{docs: docs}
}

func (h *DocumentDetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	source := chi.URLParam(r, "source")
	if source == "" {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}

	doc, err := h.docs.Get(ctx, source)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		logger.ErrorContext(ctx, "failed to load document", "source", source, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocumentHandler removes a document from the index and the catalog.
type DeleteDocumentHandler struct {
	idx  DocumentIndex
	docs storage.DocumentStore
}

// NewDeleteDocumentHandler creates a new DeleteDocumentHandler.
func NewDeleteDocumentHandler(idx DocumentIndex, docs storage.DocumentStore) *DeleteDocumentHandler {
	return &DeleteDocumentHandler{
		idx:  idx,
		docs: docs,
	}
}

func (h *DeleteDocumentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	source := chi.URLParam(r, "source")
	if source == "" {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}

	if err := h.idx.DeleteSource(ctx, source); err != nil {
		switch {
		case errors.Is(err, index.ErrNotFound):
			writeError(w, http.StatusNotFound, "Document not found")
		case errors.Is(err, index.ErrUnavailable):
			logger.ErrorContext(ctx, "vector store unavailable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "Vector store unavailable")
		default:
			logger.ErrorContext(ctx, "failed to delete document", "source", source, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	// The catalog row may already be gone if a previous delete half-finished.
	if err := h.docs.Delete(ctx, source); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.ErrorContext(ctx, "failed to delete catalog entry", "source", source, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.InfoContext(ctx, "document deleted", "source", source)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"source": source,
	})
}
