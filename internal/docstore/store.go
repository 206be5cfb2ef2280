// Package docstore caches the text of one external document and provides
// naive line-oriented search over it. The snapshot is replaced wholesale on
// refresh; concurrent fetches coalesce into a single provider call.
package docstore

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/pakawat-dev/support-linebot-go/internal/errors"
	"github.com/pakawat-dev/support-linebot-go/internal/logger"
	"github.com/pakawat-dev/support-linebot-go/internal/metrics"
)

// DocumentProvider fetches the full plain text of the external document.
type DocumentProvider interface {
	FetchDocument(ctx context.Context) (string, error)
}

// Snapshot is one full-document text cache entry.
type Snapshot struct {
	Text      string
	FetchedAt time.Time
}

// Store is the TTL-cached document snapshot.
type Store struct {
	provider DocumentProvider
	ttl      time.Duration
	vocab    SearchVocabulary
	log      *logger.Logger
	metrics  *metrics.Metrics

	flight singleflight.Group

	mu       sync.RWMutex
	snapshot Snapshot
}

// New creates a Store. The snapshot is empty until the first fetch.
func New(provider DocumentProvider, ttl time.Duration, vocab SearchVocabulary, log *logger.Logger, m *metrics.Metrics) *Store {
	return &Store{
		provider: provider,
		ttl:      ttl,
		vocab:    vocab,
		log:      log.WithModule("docstore"),
		metrics:  m,
	}
}

// GetContent returns the cached text when it is within TTL and forceRefresh
// is false; otherwise it performs a single coalesced fetch, swaps the
// snapshot and returns the new text. The provider is not retried here; the
// caller owns that decision.
func (s *Store) GetContent(ctx context.Context, forceRefresh bool) (string, error) {
	if !forceRefresh {
		s.mu.RLock()
		snap := s.snapshot
		s.mu.RUnlock()
		if snap.Text != "" && time.Since(snap.FetchedAt) < s.ttl {
			s.metrics.RecordCacheHit("document")
			return snap.Text, nil
		}
	}
	s.metrics.RecordCacheMiss("document")

	text, err, _ := s.flight.Do("fetch", func() (interface{}, error) {
		// Another caller may have refreshed while this one waited.
		if !forceRefresh {
			s.mu.RLock()
			snap := s.snapshot
			s.mu.RUnlock()
			if snap.Text != "" && time.Since(snap.FetchedAt) < s.ttl {
				return snap.Text, nil
			}
		}

		start := time.Now()
		fetched, err := s.provider.FetchDocument(ctx)
		s.metrics.RecordRefresh("document", time.Since(start).Seconds())
		if err != nil {
			return "", apperrors.NewSourceError("document", err)
		}

		s.mu.Lock()
		s.snapshot = Snapshot{Text: fetched, FetchedAt: time.Now()}
		s.mu.Unlock()

		s.log.WithField("bytes", len(fetched)).Info("document snapshot refreshed")
		return fetched, nil
	})
	if err != nil {
		return "", err
	}
	return text.(string), nil
}

// Replace swaps in prebuilt content. Used when restoring the last-good
// snapshot from local storage at startup.
func (s *Store) Replace(text string, fetchedAt time.Time) {
	s.mu.Lock()
	s.snapshot = Snapshot{Text: text, FetchedAt: fetchedAt}
	s.mu.Unlock()
}

// Cached returns the current snapshot text without fetching. Empty when no
// snapshot has been loaded yet.
func (s *Store) Cached() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Text
}

// LastFetched returns the time of the last successful fetch.
func (s *Store) LastFetched() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.FetchedAt
}

// Available reports whether a non-empty snapshot is loaded.
func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Text != ""
}
