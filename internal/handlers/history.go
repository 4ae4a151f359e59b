package handlers

import (
	"encoding/json"
	"net/http"

	"ragchat/internal/contextutil"
	"ragchat/internal/memory"
)

// HistoryHandler returns the conversation turns of one session.
type HistoryHandler struct {
	sessions *memory.Store
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(sessions *memory.Store) *HistoryHandler {
	return &HistoryHandler{sessions: sessions}
}

// HistoryResponse represents the HTTP response payload for history.
type HistoryResponse struct {
	SessionID string        `json:"session_id"`
	Turns     []memory.Turn `json:"turns"`
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	turns := h.sessions.History(sessionID)
	if turns == nil {
		turns = []memory.Turn{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		SessionID: sessionID,
		Turns:     turns,
	})
}

// ClearHandler discards the conversation memory of one session.
type ClearHandler struct {
	sessions *memory.Store
}

// NewClearHandler creates a new ClearHandler.
func NewClearHandler(sessions *memory.Store) *ClearHandler {
	return &ClearHandler{sessions: sessions}
}

// ClearRequest represents the HTTP request payload for clearing a session.
type ClearRequest struct {
	SessionID string `json:"session_id"`
}

func (h *ClearHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ClearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	h.sessions.Clear(req.SessionID)
	logger.InfoContext(ctx, "session cleared", "session", req.SessionID)

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "cleared",
		"session_id": req.SessionID,
	})
}
