package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiGenerator implements TextGenerator on the official Gemini SDK.
type geminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed text generator.
// Returns nil if apiKey is empty (provider disabled).
func NewGemini(ctx context.Context, apiKey, model string) (TextGenerator, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiGenerator{client: client, model: model}, nil
}

// GenerateText issues one prompt and returns the concatenated text parts.
func (g *geminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.4),
		MaxOutputTokens: 1024,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", classifyProviderError(fmt.Errorf("generate content failed: %w", err))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response from model")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// Provider returns the provider name for logs and metrics.
func (g *geminiGenerator) Provider() string {
	return "gemini"
}

// Close releases resources held by the generator.
// The current SDK does not require explicit cleanup.
func (g *geminiGenerator) Close() error {
	return nil
}
