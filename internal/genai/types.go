// Package genai wraps the external LLM providers behind the grounded
// response-synthesis contract: intent classification, grounded generation
// and corpus-based answer selection. Gemini is the primary provider; any
// OpenAI-compatible endpoint can serve as quota fallback.
package genai

import (
	"context"
	"time"
)

// TextGenerator is the narrow provider contract: one prompt in, free text
// out. All calls are single-shot network requests with no local state.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Provider() string
	Close() error
}

// IntentResult is the structured output of ClassifyIntent.
type IntentResult struct {
	QuestionType      string   `json:"questionType"`
	Intent            string   `json:"intent"`
	IsSpecific        bool     `json:"isSpecific"`
	IsGeneral         bool     `json:"isGeneral"`
	Confidence        int      `json:"confidence"` // 0-100
	SuggestedKeywords []string `json:"suggestedKeywords"`
	TypoCorrection    string   `json:"typoCorrection"`
}

// NeutralIntent is substituted whenever the model's structured output cannot
// be parsed. Classification is best-effort; parse failures never surface.
func NeutralIntent() IntentResult {
	return IntentResult{
		QuestionType: "general",
		Intent:       "general_inquiry",
		IsGeneral:    true,
		Confidence:   50,
	}
}

// BestAnswer is the structured output of FindBestAnswer.
type BestAnswer struct {
	Keyword       string `json:"keyword"`
	Answer        string `json:"answer"`
	Confidence    int    `json:"confidence"` // 0-100
	MatchType     string `json:"matchType"`
	TypoCorrected bool   `json:"typoCorrected"`
}

// RetryConfig bounds the quota retry loop in Generate. Backoff grows
// linearly: delay = InitialDelay * attempt.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultRetryConfig matches the quota policy: 3 attempts with linearly
// increasing backoff, applied only to quota-exceeded errors.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Second,
	}
}

// Sleep waits for d, respecting context cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
