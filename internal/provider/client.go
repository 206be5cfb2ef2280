// Package provider implements the external data providers: the published
// document fetcher and the tabular keyword source, both built on a shared
// retrying HTTP client.
package provider

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/corpix/uarand"
)

// permanentError marks an HTTP failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Client is an HTTP fetch client with bounded exponential-backoff retries.
type Client struct {
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a fetch client. maxRetries counts retries after the
// first attempt.
func NewClient(timeout time.Duration, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries: maxRetries,
	}
}

// Get fetches url and returns the response with a decompressed body reader.
// Caller closes the body. Status 4xx fails without retrying; 429 and 5xx are
// retried with backoff.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, io.ReadCloser, error) {
	var resp *http.Response

	err := retryWithBackoff(ctx, c.maxRetries, time.Second, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &permanentError{err: fmt.Errorf("create request: %w", err)}
		}
		req.Header.Set("User-Agent", uarand.GetRandom())
		req.Header.Set("Accept", "text/html,text/plain,text/csv,*/*;q=0.8")
		req.Header.Set("Accept-Encoding", "gzip")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			statusErr := fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return statusErr
			}
			return &permanentError{err: statusErr}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	body := io.ReadCloser(resp.Body)
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("decompress gzip: %w", err)
		}
		body = &gzipBody{Reader: gz, inner: resp.Body}
	}
	return resp, body, nil
}

// GetText fetches url and returns the full body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, string, error) {
	resp, body, err := c.Get(ctx, url)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", "", fmt.Errorf("read body: %w", err)
	}
	return string(data), resp.Header.Get("Content-Type"), nil
}

type gzipBody struct {
	*gzip.Reader
	inner io.ReadCloser
}

func (b *gzipBody) Close() error {
	err := b.Reader.Close()
	if inner := b.inner.Close(); inner != nil && err == nil {
		err = inner
	}
	return err
}

// retryWithBackoff retries fn with exponential backoff until it succeeds,
// returns a permanent error, or attempts are exhausted.
func retryWithBackoff(ctx context.Context, maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.Unwrap()
		}
		if attempt == maxRetries {
			break
		}

		delay := time.Duration(float64(initialDelay) * math.Pow(2, float64(attempt)))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// isHTMLContent reports whether a Content-Type header denotes HTML.
func isHTMLContent(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}
