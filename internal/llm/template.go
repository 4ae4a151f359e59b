package llm

import (
	"context"
	"strings"
)

// templatePreviewLen is how much of the retrieved context the fallback
// answer echoes back.
const templatePreviewLen = 400

// TemplateGenerator is the deterministic fallback used when no real
// generation backend is configured. It never fails and never leaves the
// process, so the pipeline stays usable in demo setups.
type TemplateGenerator struct {
	noContextMarker string
}

// NewTemplateGenerator creates the fallback generator. noContextMarker is
// the canonical "no relevant documents" string the orchestrator substitutes
// when retrieval comes back empty; the fallback inspects the prompt for it
// to choose the empty-knowledge-base reply.
func NewTemplateGenerator(noContextMarker string) *TemplateGenerator {
	return &TemplateGenerator{noContextMarker: noContextMarker}
}

// Generate returns a canned answer built from the prompt itself.
func (g *TemplateGenerator) Generate(ctx context.Context, systemPrompt string, recent []Message, userPrompt string) (string, error) {
	if g.noContextMarker != "" && strings.Contains(userPrompt, g.noContextMarker) {
		return "I couldn't find relevant information in the knowledge base. " +
			"Please upload documents first and then ask your question.", nil
	}

	preview := userPrompt
	if runes := []rune(preview); len(runes) > templatePreviewLen {
		preview = string(runes[:templatePreviewLen])
	}
	preview = strings.ReplaceAll(preview, "\n", " ")

	return "[demo mode - no generation backend configured]\n\n" +
		"Based on the retrieved context, here is a summary:\n\n" + preview + "…\n\n" +
		"Configure a chat or Ollama backend to get real generated answers.", nil
}

// Name identifies the backend.
func (g *TemplateGenerator) Name() string {
	return "template"
}
