// Package llm provides clients for the external model services: text
// embeddings and answer generation.
package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks ragchat/internal/llm Generator

import "context"

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces an answer from a system prompt, recent conversation
// turns and the current user prompt. The backend is fixed at construction:
// a remote chat-completion API, a local generation endpoint, or the
// templated fallback when neither is configured.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, recent []Message, userPrompt string) (string, error)
	// Name identifies the backend for logging and the stats endpoint.
	Name() string
}
