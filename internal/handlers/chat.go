package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ragchat/internal/contextutil"
	"ragchat/internal/index"
	"ragchat/internal/rag"
)

// maxTopK bounds user-provided retrieval depth.
const maxTopK = 20

// ChatHandler handles question answering over the knowledge base.
type ChatHandler struct {
	engine         rag.Engine
	defaultTopK    int
	defaultRerankK int
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(engine rag.Engine, defaultTopK, defaultRerankK int) *ChatHandler {
	return &ChatHandler{
		engine:         engine,
		defaultTopK:    defaultTopK,
		defaultRerankK: defaultRerankK,
	}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Message    string `json:"message"`
	SessionID  string `json:"session_id,omitempty"`
	TopK       int    `json:"top_k,omitempty"`
	RerankTopK int    `json:"rerank_top_k,omitempty"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Answer      string           `json:"answer"`
	Sources     []string         `json:"sources"`
	ContextUsed []rag.ContextHit `json:"context_used"`
	SessionID   string           `json:"session_id"`
	ElapsedMs   int64            `json:"elapsed_ms"`
	Timestamp   string           `json:"timestamp"`
}

// ServeHTTP answers a question using the retrieval pipeline.
//
// Generation problems degrade to an in-band answer and still return 200;
// only an unreachable vector store or embedding service maps to 503.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Message == "" {
		logger.WarnContext(ctx, "empty message in request")
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if req.TopK < 0 || req.RerankTopK < 0 {
		writeError(w, http.StatusBadRequest, "top_k and rerank_top_k must not be negative")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	topK := req.TopK
	if topK == 0 {
		topK = h.defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}
	rerankK := req.RerankTopK
	if rerankK == 0 {
		rerankK = h.defaultRerankK
	}

	resp, err := h.engine.Answer(ctx, rag.AnswerRequest{
		Query:      req.Message,
		SessionID:  sessionID,
		TopK:       topK,
		RerankTopN: rerankK,
	})
	if err != nil {
		if errors.Is(err, index.ErrUnavailable) {
			logger.ErrorContext(ctx, "retrieval backend unavailable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "Vector store unavailable")
			return
		}
		logger.ErrorContext(ctx, "chat pipeline failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:      resp.Answer,
		Sources:     resp.Sources,
		ContextUsed: resp.ContextUsed,
		SessionID:   sessionID,
		ElapsedMs:   time.Since(start).Milliseconds(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}
