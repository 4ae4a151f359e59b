package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ragchat/internal/contextutil"
	"ragchat/internal/eval"
	"ragchat/internal/storage"
)

// EvaluateHandler scores an answer against its retrieval contexts.
type EvaluateHandler struct {
	evaluator *eval.Evaluator
	evals     storage.EvalStore
}

// NewEvaluateHandler creates a new EvaluateHandler.
func NewEvaluateHandler(evaluator *eval.Evaluator, evals storage.EvalStore) *EvaluateHandler {
	return &EvaluateHandler{
		evaluator: evaluator,
		evals:     evals,
	}
}

// EvaluateRequest represents the HTTP request payload for evaluation.
type EvaluateRequest struct {
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	Contexts    []string `json:"contexts"`
	GroundTruth string   `json:"ground_truth,omitempty"`
}

// EvaluateResponse represents the HTTP response payload for evaluation.
type EvaluateResponse struct {
	ID     string      `json:"id"`
	Scores eval.Result `json:"scores"`
}

// ServeHTTP scores the answer and persists the evaluation record.
func (h *EvaluateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Question == "" || req.Answer == "" {
		writeError(w, http.StatusBadRequest, "Question and answer are required")
		return
	}
	if len(req.Contexts) == 0 {
		writeError(w, http.StatusBadRequest, "Contexts are required")
		return
	}

	result := h.evaluator.Evaluate(req.Question, req.Answer, req.Contexts, req.GroundTruth)

	rec := &storage.EvalRecord{
		Question:    req.Question,
		Answer:      req.Answer,
		Contexts:    req.Contexts,
		GroundTruth: req.GroundTruth,
		Scores:      result,
	}
	if err := h.evals.Insert(ctx, rec); err != nil {
		logger.ErrorContext(ctx, "failed to persist evaluation", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.InfoContext(ctx, "evaluation recorded", "id", rec.ID, "aggregate", result.Aggregate, "label", result.Label)
	writeJSON(w, http.StatusOK, EvaluateResponse{
		ID:     rec.ID,
		Scores: result,
	})
}

const (
	defaultEvaluationLimit = 20
	maxEvaluationLimit     = 100
)

// EvaluationsHandler lists recent evaluation records.
type EvaluationsHandler struct {
	evals storage.EvalStore
}

// NewEvaluationsHandler creates a new EvaluationsHandler.
func NewEvaluationsHandler(evals storage.EvalStore) *EvaluationsHandler {
	return &EvaluationsHandler{evals: evals}
}

// EvaluationsResponse represents the HTTP response payload for the listing.
type EvaluationsResponse struct {
	Evaluations []storage.EvalRecord `json:"evaluations"`
	Count       int                  `json:"count"`
}

func (h *EvaluationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	limit := defaultEvaluationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxEvaluationLimit {
		limit = maxEvaluationLimit
	}

	records, err := h.evals.ListRecent(ctx, limit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list evaluations", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if records == nil {
		records = []storage.EvalRecord{}
	}

	writeJSON(w, http.StatusOK, EvaluationsResponse{
		Evaluations: records,
		Count:       len(records),
	})
}
