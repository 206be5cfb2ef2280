package genai

import (
	"context"
	"errors"

	apperrors "github.com/pakawat-dev/support-linebot-go/internal/errors"
	"github.com/pakawat-dev/support-linebot-go/internal/logger"
)

// chainGenerator tries each provider in order, moving to the next one only
// on quota exhaustion. Non-quota failures propagate from the first provider
// so the caller's error policy stays intact.
type chainGenerator struct {
	generators []TextGenerator
	log        *logger.Logger
}

// NewChain builds a provider chain from the non-nil generators.
// Returns nil when no provider is configured.
func NewChain(log *logger.Logger, generators ...TextGenerator) TextGenerator {
	var active []TextGenerator
	for _, g := range generators {
		if g != nil {
			active = append(active, g)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return &chainGenerator{generators: active, log: log.WithModule("genai")}
}

func (c *chainGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, g := range c.generators {
		text, err := g.GenerateText(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !apperrors.IsQuota(err) || errors.Is(err, context.Canceled) {
			return "", err
		}
		if i < len(c.generators)-1 {
			c.log.WithError(err).
				WithField("from", g.Provider()).
				WithField("to", c.generators[i+1].Provider()).
				Warn("provider quota exhausted; falling back")
		}
	}
	return "", lastErr
}

func (c *chainGenerator) Provider() string {
	return c.generators[0].Provider()
}

func (c *chainGenerator) Close() error {
	var firstErr error
	for _, g := range c.generators {
		if err := g.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
