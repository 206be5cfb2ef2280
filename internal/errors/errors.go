// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrSourceUnavailable indicates an external data provider call failed
	// (document, keyword table, or LLM).
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrGenerationFailed indicates an LLM call errored for a non-quota reason.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrParseFailed indicates the LLM returned malformed structured output.
	ErrParseFailed = errors.New("parse failed")

	// ErrQueueSaturated indicates the request queue rejected new work at capacity.
	ErrQueueSaturated = errors.New("queue saturated")

	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
)

// SourceError wraps a provider failure with the name of the failing source.
type SourceError struct {
	Source string // "document", "keyword_table", "llm"
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is reports ErrSourceUnavailable for any SourceError so callers can use a
// single sentinel in their fallback chains.
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// NewSourceError creates a new source error.
func NewSourceError(source string, err error) *SourceError {
	return &SourceError{Source: source, Err: err}
}

// QuotaError marks an LLM failure caused by quota exhaustion. The responder
// retries these with backoff; other generation failures propagate immediately.
type QuotaError struct {
	Err error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded: %v", e.Err)
}

func (e *QuotaError) Unwrap() error {
	return e.Err
}

// IsQuota reports whether err is (or wraps) a QuotaError.
func IsQuota(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}
