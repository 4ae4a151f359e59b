package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Chat generation defaults tuned for grounded question answering.
const (
	chatTemperature = 0.3
	chatMaxTokens   = 1024
)

// ChatGenerator generates answers through an OpenAI-style chat completions
// API (llama.cpp server, OpenAI, or any compatible endpoint).
type ChatGenerator struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewChatGenerator creates a chat-completions generator.
func NewChatGenerator(baseURL, apiKey, model string) *ChatGenerator {
	return &ChatGenerator{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
}

// Generate sends system prompt, recent turns and user prompt as a message
// array and returns the completion text.
func (c *ChatGenerator) Generate(ctx context.Context, systemPrompt string, recent []Message, userPrompt string) (string, error) {
	url := fmt.Sprintf("%s/v1/chat/completions", c.BaseURL)

	messages := make([]Message, 0, len(recent)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, recent...)
	messages = append(messages, Message{Role: "user", Content: userPrompt})

	payload := ChatRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Name identifies the backend.
func (c *ChatGenerator) Name() string {
	return "chat:" + c.Model
}
