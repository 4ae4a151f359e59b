package rag

// NoContextMarker is substituted for the assembled context when retrieval
// returns nothing. The fallback generator inspects the prompt for this
// exact string to choose its empty-knowledge-base reply.
const NoContextMarker = "No relevant documents found in the knowledge base."

// AnswerRequest carries one question through the pipeline.
type AnswerRequest struct {
	Query      string
	SessionID  string
	TopK       int
	RerankTopN int
}

// ContextHit describes one re-ranked chunk used to answer, with a
// truncated preview instead of the full text.
type ContextHit struct {
	Preview     string  `json:"preview"`
	Source      string  `json:"source"`
	Similarity  float64 `json:"similarity"`
	RerankScore float64 `json:"rerank_score"`
	Scored      bool    `json:"scored"`
}

// AnswerResponse is the pipeline result. Sources are deduplicated in
// first-seen order over the re-ranked hits.
type AnswerResponse struct {
	Answer      string       `json:"answer"`
	Sources     []string     `json:"sources"`
	ContextUsed []ContextHit `json:"context_used"`
}
