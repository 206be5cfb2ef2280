package genai

import (
	"strings"

	apperrors "github.com/pakawat-dev/support-linebot-go/internal/errors"
)

// quotaPatterns are matched against provider error messages to distinguish
// quota exhaustion (retried with backoff) from other failures (propagated
// immediately).
var quotaPatterns = []string{
	"quota",
	"resource_exhausted",
	"resource exhausted",
	"rate limit",
	"too many requests",
	"429",
}

// classifyProviderError wraps quota-exhaustion failures in QuotaError so the
// retry loop can tell them apart from permanent generation failures.
func classifyProviderError(err error) error {
	if err == nil {
		return nil
	}
	lowered := strings.ToLower(err.Error())
	for _, pattern := range quotaPatterns {
		if strings.Contains(lowered, pattern) {
			return &apperrors.QuotaError{Err: err}
		}
	}
	return err
}
