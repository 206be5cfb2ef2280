package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiGenerator implements TextGenerator on any OpenAI-compatible endpoint
// (Groq and friends). Used as the quota-fallback provider.
type openaiGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAICompatible creates a text generator against an OpenAI-compatible
// API. Returns nil if apiKey is empty (provider disabled).
func NewOpenAICompatible(apiKey, baseURL, model string) (TextGenerator, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}
	if baseURL == "" {
		return nil, errors.New("base URL required for OpenAI-compatible provider")
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &openaiGenerator{client: client, model: model}, nil
}

// GenerateText issues one chat completion and returns the message content.
func (g *openaiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.4),
		MaxTokens:   openai.Int(1024),
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyProviderError(fmt.Errorf("chat completion failed: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Provider returns the provider name for logs and metrics.
func (g *openaiGenerator) Provider() string {
	return "openai_compatible"
}

// Close releases resources held by the generator.
func (g *openaiGenerator) Close() error {
	return nil
}
