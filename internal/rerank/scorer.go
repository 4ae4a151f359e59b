// Package rerank reorders retrieval hits with a cross-encoder relevance
// model. The scorer is optional; without one the reranker passes hits
// through in retrieval order.
package rerank

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_scorer.go -package=mocks ragchat/internal/rerank Scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Scorer scores each candidate text against the query. The returned slice
// is positional: scores[i] belongs to texts[i].
type Scorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// HTTPScorer calls an OpenAI-style /v1/rerank cross-encoder endpoint.
type HTTPScorer struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewHTTPScorer creates a rerank API client.
func NewHTTPScorer(baseURL, apiKey, model string) *HTTPScorer {
	return &HTTPScorer{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// RerankRequest represents the request payload for the rerank API.
type RerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

// RerankResult is one scored document in the response.
type RerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// RerankResponse represents the response from the rerank API.
type RerankResponse struct {
	Results []RerankResult `json:"results"`
}

// Score sends query and candidates to the rerank endpoint and returns the
// relevance scores in input order.
func (s *HTTPScorer) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}

	payload := RerankRequest{
		Model:     s.Model,
		Query:     query,
		Documents: texts,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/rerank", s.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var rerankResp RerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	scores := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, r := range rerankResp.Results {
		if r.Index < 0 || r.Index >= len(texts) {
			return nil, fmt.Errorf("result index %d out of range", r.Index)
		}
		scores[r.Index] = r.RelevanceScore
		seen[r.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("missing score for document %d", i)
		}
	}

	return scores, nil
}
