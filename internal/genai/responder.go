package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/pakawat-dev/support-linebot-go/internal/errors"
	"github.com/pakawat-dev/support-linebot-go/internal/logger"
	"github.com/pakawat-dev/support-linebot-go/internal/metrics"
)

// maxCorpusRunes bounds the serialized corpus passed to FindBestAnswer.
const maxCorpusRunes = 24000

// Responder implements the grounded response-synthesis operations on top of
// a TextGenerator. Failures never corrupt caller state; every method either
// returns a usable value or an error the orchestrator can route around.
type Responder struct {
	gen     TextGenerator
	retry   RetryConfig
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewResponder creates a Responder. gen may be nil (LLM disabled); every
// operation then reports the LLM source as unavailable.
func NewResponder(gen TextGenerator, retry RetryConfig, log *logger.Logger, m *metrics.Metrics) *Responder {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	return &Responder{
		gen:     gen,
		retry:   retry,
		log:     log.WithModule("genai"),
		metrics: m,
	}
}

// Enabled reports whether an LLM provider is configured.
func (r *Responder) Enabled() bool {
	return r != nil && r.gen != nil
}

// ClassifyIntent asks the model to classify one message. The neutral default
// is returned alongside any error so callers can always proceed.
func (r *Responder) ClassifyIntent(ctx context.Context, message, contextText string) (IntentResult, error) {
	if !r.Enabled() {
		return NeutralIntent(), apperrors.NewSourceError("llm", apperrors.ErrSourceUnavailable)
	}

	raw, err := r.generateWithRetry(ctx, "classify_intent", intentPrompt(message, contextText))
	if err != nil {
		return NeutralIntent(), err
	}

	var result IntentResult
	if err := parseStructured(raw, &result); err != nil {
		// Malformed structured output is recovered locally, never surfaced.
		r.log.WithError(err).Debug("intent response not parseable; using neutral default")
		r.metrics.RecordLLMCall(r.gen.Provider(), "classify_intent", "parse_failed")
		return NeutralIntent(), nil
	}
	if result.QuestionType == "" {
		return NeutralIntent(), nil
	}
	return result, nil
}

// Generate issues a grounded free-text prompt. Quota-exceeded errors are
// retried with linearly increasing backoff; any other error propagates
// immediately as GenerationFailed.
func (r *Responder) Generate(ctx context.Context, message, contextText, personaText string) (string, error) {
	if !r.Enabled() {
		return "", apperrors.NewSourceError("llm", apperrors.ErrSourceUnavailable)
	}
	return r.generateWithRetry(ctx, "generate", groundedPrompt(message, contextText, personaText))
}

// FindBestAnswer asks the model to select the best answer from the supplied
// corpus. Returns (nil, nil) when the response cannot be parsed or the model
// indicates no match.
func (r *Responder) FindBestAnswer(ctx context.Context, message, corpus, contextText string) (*BestAnswer, error) {
	if !r.Enabled() {
		return nil, apperrors.NewSourceError("llm", apperrors.ErrSourceUnavailable)
	}
	if strings.TrimSpace(corpus) == "" {
		return nil, nil
	}

	prompt := bestAnswerPrompt(message, corpusExcerpt(corpus, maxCorpusRunes), contextText)
	raw, err := r.generateWithRetry(ctx, "find_best_answer", prompt)
	if err != nil {
		return nil, err
	}

	var answer BestAnswer
	if err := parseStructured(raw, &answer); err != nil {
		r.log.WithError(err).Debug("best-answer response not parseable")
		r.metrics.RecordLLMCall(r.gen.Provider(), "find_best_answer", "parse_failed")
		return nil, nil
	}
	if answer.MatchType == "none" || answer.MatchType == "" || strings.TrimSpace(answer.Answer) == "" {
		return nil, nil
	}
	return &answer, nil
}

// parseStructured decodes the model's fenced-or-bare JSON output, classifying
// failures as ParseFailed. Callers always recover these with a neutral value.
func parseStructured(raw string, v any) error {
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), v); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrParseFailed, err)
	}
	return nil
}

// generateWithRetry runs one prompt through the provider, retrying only on
// quota exhaustion.
func (r *Responder) generateWithRetry(ctx context.Context, operation, prompt string) (string, error) {
	provider := r.gen.Provider()

	var lastErr error
	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		start := time.Now()
		text, err := r.gen.GenerateText(ctx, prompt)
		if err == nil {
			r.metrics.RecordLLMCall(provider, operation, "success")
			r.log.WithField("operation", operation).
				WithField("duration_ms", time.Since(start).Milliseconds()).
				Debug("llm call completed")
			return strings.TrimSpace(text), nil
		}
		lastErr = err

		if !apperrors.IsQuota(err) {
			r.metrics.RecordLLMCall(provider, operation, "error")
			return "", fmt.Errorf("%w: %v", apperrors.ErrGenerationFailed, err)
		}

		r.metrics.RecordLLMRetry(provider, "quota")
		if attempt == r.retry.MaxAttempts {
			break
		}
		// Linear backoff: delay grows with the attempt number.
		if err := Sleep(ctx, time.Duration(attempt)*r.retry.InitialDelay); err != nil {
			return "", err
		}
	}

	r.metrics.RecordLLMCall(provider, operation, "quota_exhausted")
	return "", apperrors.NewSourceError("llm", lastErr)
}
