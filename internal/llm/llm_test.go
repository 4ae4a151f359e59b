package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChatGenerator_Generate(t *testing.T) {
	tests := []struct {
		name       string
		serverResp func(w http.ResponseWriter, r *http.Request)
		wantReply  string
		wantErr    bool
	}{
		{
			name: "successful generation",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				if !strings.Contains(r.Header.Get("Authorization"), "Bearer") {
					t.Error("missing Authorization header")
				}

				var req ChatRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("failed to decode request: %v", err)
				}
				if len(req.Messages) != 4 {
					t.Errorf("expected 4 messages (system + 2 recent + user), got %d", len(req.Messages))
				}
				if req.Messages[0].Role != "system" {
					t.Errorf("first message role = %q, want system", req.Messages[0].Role)
				}
				if req.Messages[len(req.Messages)-1].Role != "user" {
					t.Errorf("last message role = %q, want user", req.Messages[len(req.Messages)-1].Role)
				}
				if req.Temperature != chatTemperature {
					t.Errorf("temperature = %v, want %v", req.Temperature, chatTemperature)
				}
				if req.MaxTokens != chatMaxTokens {
					t.Errorf("max_tokens = %v, want %v", req.MaxTokens, chatMaxTokens)
				}

				resp := ChatResponse{
					ID: "test-id",
					Choices: []ChatChoice{
						{Message: Message{Role: "assistant", Content: "Paris."}, FinishReason: "stop"},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantReply: "Paris.",
		},
		{
			name: "no choices returned",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(ChatResponse{ID: "test-id"})
			},
			wantErr: true,
		},
		{
			name: "server error",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			g := NewChatGenerator(server.URL, "test-key", "test-model")
			recent := []Message{
				{Role: "user", Content: "earlier question"},
				{Role: "assistant", Content: "earlier answer"},
			}
			reply, err := g.Generate(context.Background(), "system prompt", recent, "user prompt")

			if tt.wantErr {
				if err == nil {
					t.Error("Generate() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if reply != tt.wantReply {
				t.Errorf("Generate() = %q, want %q", reply, tt.wantReply)
			}
		})
	}
}

func TestOllamaGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("expected /api/generate, got %s", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream should be false")
		}
		if !strings.HasPrefix(req.Prompt, "system prompt\n\n") {
			t.Errorf("prompt should start with the system prompt, got %q", req.Prompt)
		}
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "local answer", Done: true})
	}))
	defer server.Close()

	g := NewOllamaGenerator(server.URL, "test-model")
	reply, err := g.Generate(context.Background(), "system prompt", nil, "user prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if reply != "local answer" {
		t.Errorf("Generate() = %q", reply)
	}
}

func TestOllamaGenerator_Defaults(t *testing.T) {
	g := NewOllamaGenerator("", "")
	if g.BaseURL != "http://localhost:11434" {
		t.Errorf("BaseURL = %q", g.BaseURL)
	}
	if g.Model != "llama3" {
		t.Errorf("Model = %q", g.Model)
	}
}

func TestTemplateGenerator_NoContextBranch(t *testing.T) {
	g := NewTemplateGenerator("No relevant documents found in the knowledge base.")
	reply, err := g.Generate(context.Background(), "system",
		nil, "Context:\nNo relevant documents found in the knowledge base.\n\nQuestion: hi")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(reply, "upload documents") {
		t.Errorf("expected the empty-knowledge-base reply, got %q", reply)
	}
}

func TestTemplateGenerator_EchoesContextPreview(t *testing.T) {
	g := NewTemplateGenerator("No relevant documents found in the knowledge base.")
	prompt := "Context:\n" + strings.Repeat("interesting facts here. ", 40)
	reply, err := g.Generate(context.Background(), "system", nil, prompt)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(reply, "demo mode") {
		t.Errorf("expected demo-mode notice, got %q", reply)
	}
	if !strings.Contains(reply, "interesting facts here.") {
		t.Errorf("expected context preview in reply, got %q", reply)
	}
}

func TestTemplateGenerator_MultibytePreview(t *testing.T) {
	g := NewTemplateGenerator("No relevant documents found in the knowledge base.")
	prompt := "Context:\n" + strings.Repeat("héllo wörld. ", 60)
	reply, err := g.Generate(context.Background(), "system", nil, prompt)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !utf8.ValidString(reply) {
		t.Errorf("preview cut mid-rune: %q", reply)
	}
}

func TestEmbeddingsClient_EmbedTexts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
		}
		var req EmbeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		resp := EmbeddingsResponse{}
		for range req.Input {
			resp.Data = append(resp.Data, EmbeddingData{Embedding: []float64{0.1, 0.2, 0.3}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewEmbeddingsClient(server.URL, "key", "model", 3)
	vecs, err := c.EmbedTexts(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 3 {
		t.Errorf("EmbedTexts() shape = %dx%d, want 2x3", len(vecs), len(vecs[0]))
	}
}

func TestEmbeddingsClient_SizeMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(EmbeddingsResponse{
			Data: []EmbeddingData{{Embedding: []float64{0.1, 0.2}}},
		})
	}))
	defer server.Close()

	c := NewEmbeddingsClient(server.URL, "key", "model", 3)
	if _, err := c.EmbedTexts(context.Background(), []string{"one"}); err == nil {
		t.Error("EmbedTexts() expected size-mismatch error")
	}
}

func TestEmbeddingsClient_EmptyInput(t *testing.T) {
	c := NewEmbeddingsClient("http://unused", "key", "model", 3)
	if _, err := c.EmbedTexts(context.Background(), nil); err == nil {
		t.Error("EmbedTexts(nil) expected error")
	}
}
