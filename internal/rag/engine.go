// Package rag orchestrates the answer pipeline: retrieve, re-rank,
// assemble context and prompt, generate, and record the exchange in
// conversation memory.
package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks ragchat/internal/rag Engine,Retriever

import (
	"context"
	"fmt"
	"strings"

	"ragchat/internal/contextutil"
	"ragchat/internal/index"
	"ragchat/internal/llm"
	"ragchat/internal/memory"
	"ragchat/internal/rerank"
)

const (
	defaultTopK       = 5
	defaultRerankTopN = 3

	// previewLen bounds the context previews in the response.
	previewLen = 200

	// historyChars bounds the formatted history included in the prompt.
	historyChars = 2000

	// recentTurns is how many prior turns are passed to chat backends as
	// structured messages.
	recentTurns = 6
)

const systemPrompt = `You are a helpful assistant answering questions about a document knowledge base.
Answer using only the provided context. If the context does not contain enough
information to answer, say so explicitly. Cite the source document when it is
relevant. Use the conversation history to resolve follow-up questions.`

// Retriever returns the chunks most similar to a query.
// Satisfied by *index.Index; source restricts retrieval to one document,
// empty means all.
type Retriever interface {
	Query(ctx context.Context, query string, topK int, source string) ([]index.RetrievalHit, error)
}

// Engine answers questions over the indexed documents.
type Engine interface {
	Answer(ctx context.Context, req AnswerRequest) (AnswerResponse, error)
}

// Pipeline is the production Engine: retrieval through the index,
// optional re-ranking, generation through the configured backend and
// per-session conversation memory.
type Pipeline struct {
	retriever Retriever
	reranker  *rerank.Reranker
	generator llm.Generator
	sessions  *memory.Store
}

// NewPipeline wires the pipeline stages. The generator is chosen once at
// startup; swapping backends means constructing a new pipeline.
func NewPipeline(retriever Retriever, reranker *rerank.Reranker, generator llm.Generator, sessions *memory.Store) *Pipeline {
	return &Pipeline{
		retriever: retriever,
		reranker:  reranker,
		generator: generator,
		sessions:  sessions,
	}
}

// Answer runs the full pipeline for one question. Retrieval failures are
// returned as errors; generation failures degrade to an in-band error
// answer so the caller still gets a usable response.
func (p *Pipeline) Answer(ctx context.Context, req AnswerRequest) (AnswerResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	topN := req.RerankTopN
	if topN <= 0 {
		topN = defaultRerankTopN
	}

	hits, err := p.retriever.Query(ctx, req.Query, topK, "")
	if err != nil {
		return AnswerResponse{}, fmt.Errorf("retrieve: %w", err)
	}

	var ranked []rerank.RankedHit
	if len(hits) > 0 {
		ranked = p.reranker.Rank(ctx, req.Query, hits, topN)
	}

	contextBlock := buildContext(ranked)
	history := p.sessions.FormattedContext(req.SessionID, historyChars)
	userPrompt := buildPrompt(contextBlock, history, req.Query)
	recent := p.recentMessages(req.SessionID)

	answer, err := p.generator.Generate(ctx, systemPrompt, recent, userPrompt)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", "backend", p.generator.Name(), "error", err)
		answer = fmt.Sprintf("Error generating answer: %v", err)
	}

	p.sessions.Append(req.SessionID, memory.RoleUser, req.Query)
	p.sessions.Append(req.SessionID, memory.RoleAssistant, answer)

	logger.InfoContext(ctx, "question answered",
		"session", req.SessionID, "hits", len(hits), "used", len(ranked), "backend", p.generator.Name())

	return AnswerResponse{
		Answer:      answer,
		Sources:     dedupSources(ranked),
		ContextUsed: contextHits(ranked),
	}, nil
}

// buildContext formats the re-ranked passages into one context block, or
// the no-context marker when nothing was retrieved.
func buildContext(ranked []rerank.RankedHit) string {
	if len(ranked) == 0 {
		return NoContextMarker
	}
	parts := make([]string, len(ranked))
	for i, h := range ranked {
		parts[i] = fmt.Sprintf("[%d] Source: %s\n%s", i+1, h.Source, h.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func buildPrompt(contextBlock, history, query string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(contextBlock)
	if history != "" {
		b.WriteString("\n\nConversation history:\n")
		b.WriteString(history)
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	return b.String()
}

// recentMessages converts the session's last turns into chat messages for
// backends with structured message support.
func (p *Pipeline) recentMessages(sessionID string) []llm.Message {
	turns := p.sessions.Recent(sessionID, recentTurns)
	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, llm.Message{Role: string(t.Role), Content: t.Content})
	}
	return msgs
}

// dedupSources returns the hit sources in first-seen order without repeats.
func dedupSources(ranked []rerank.RankedHit) []string {
	seen := make(map[string]struct{}, len(ranked))
	sources := make([]string, 0, len(ranked))
	for _, h := range ranked {
		if _, ok := seen[h.Source]; ok {
			continue
		}
		seen[h.Source] = struct{}{}
		sources = append(sources, h.Source)
	}
	return sources
}

func contextHits(ranked []rerank.RankedHit) []ContextHit {
	hits := make([]ContextHit, len(ranked))
	for i, h := range ranked {
		hits[i] = ContextHit{
			Preview:     truncate(h.Text, previewLen),
			Source:      h.Source,
			Similarity:  h.Similarity,
			RerankScore: h.RerankScore,
			Scored:      h.Scored,
		}
	}
	return hits
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
