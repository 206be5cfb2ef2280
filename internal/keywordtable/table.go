// Package keywordtable maintains the spreadsheet-backed (keyword, answer)
// collection and provides exact, partial and fuzzy lookup over it. The
// collection is bulk-replaced wholesale on each refresh; readers never
// observe a partial update.
package keywordtable

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/pakawat-dev/support-linebot-go/internal/errors"
	"github.com/pakawat-dev/support-linebot-go/internal/logger"
	"github.com/pakawat-dev/support-linebot-go/internal/metrics"
)

// Entry is one (keyword, answer) pair loaded from the tabular source.
// Duplicates are allowed; the first or best-scoring match wins at query time.
type Entry struct {
	Keyword     string
	Answer      string
	SourceSheet string
}

// RowProvider fetches all rows of one named page from the tabular source.
type RowProvider interface {
	FetchRows(ctx context.Context, page string) ([][]string, error)
}

// DefaultFuzzyMinRatio is the minimum Levenshtein ratio for the fuzzy
// single-word fallback.
const DefaultFuzzyMinRatio = 0.75

// Config configures a Table.
type Config struct {
	Pages         []string   // named pages to load
	IntentBuckets [][]string // domain term buckets for the last-resort matcher
	FuzzyMinRatio float64    // 0 means DefaultFuzzyMinRatio
}

// DefaultIntentBuckets groups contact-style vocabulary used by the
// last-resort bucket matcher.
func DefaultIntentBuckets() [][]string {
	return [][]string{
		{"อีเมล", "email", "e-mail", "เมล"},
		{"เบอร์", "โทร", "phone", "tel", "โทรศัพท์"},
		{"ติดต่อ", "contact", "line", "ไลน์", "facebook", "เฟซบุ๊ก"},
	}
}

// Table is the live keyword collection with atomic whole-value refresh.
type Table struct {
	provider RowProvider
	cfg      Config
	log      *logger.Logger
	metrics  *metrics.Metrics

	flight singleflight.Group

	mu          sync.RWMutex
	entries     []Entry
	lastRefresh time.Time
}

// New creates a Table. The collection is empty until the first Refresh.
func New(provider RowProvider, cfg Config, log *logger.Logger, m *metrics.Metrics) *Table {
	if len(cfg.Pages) == 0 {
		cfg.Pages = []string{"FAQ"}
	}
	if cfg.IntentBuckets == nil {
		cfg.IntentBuckets = DefaultIntentBuckets()
	}
	if cfg.FuzzyMinRatio == 0 {
		cfg.FuzzyMinRatio = DefaultFuzzyMinRatio
	}
	return &Table{
		provider: provider,
		cfg:      cfg,
		log:      log.WithModule("keywordtable"),
		metrics:  m,
	}
}

// Refresh fetches all configured pages and atomically replaces the live
// collection. A failing page is skipped with a log entry; if every page
// fails the collection is cleared and ErrSourceUnavailable is returned.
// Concurrent callers coalesce into a single fetch.
func (t *Table) Refresh(ctx context.Context) error {
	_, err, _ := t.flight.Do("refresh", func() (interface{}, error) {
		return nil, t.refresh(ctx)
	})
	return err
}

func (t *Table) refresh(ctx context.Context) error {
	start := time.Now()

	var entries []Entry
	failedPages := 0
	for _, page := range t.cfg.Pages {
		rows, err := t.provider.FetchRows(ctx, page)
		if err != nil {
			failedPages++
			t.log.WithError(err).WithField("page", page).Warn("keyword page fetch failed; skipping")
			continue
		}
		entries = append(entries, parseRows(rows, page)...)
	}

	t.metrics.RecordRefresh("keyword_table", time.Since(start).Seconds())

	if failedPages == len(t.cfg.Pages) {
		t.mu.Lock()
		t.entries = nil
		t.mu.Unlock()
		return apperrors.NewSourceError("keyword_table", fmt.Errorf("all %d pages failed", failedPages))
	}

	t.mu.Lock()
	t.entries = entries
	t.lastRefresh = time.Now()
	t.mu.Unlock()

	t.log.WithField("entries", len(entries)).
		WithField("failed_pages", failedPages).
		Info("keyword table refreshed")
	return nil
}

// Replace swaps in a prebuilt collection. Used when restoring the last-good
// snapshot from local storage at startup.
func (t *Table) Replace(entries []Entry, loadedAt time.Time) {
	t.mu.Lock()
	t.entries = entries
	t.lastRefresh = loadedAt
	t.mu.Unlock()
}

// FindBestMatch runs the matcher pipeline over the live collection.
// Strategies are tried in precedence order; the first success wins.
// Returns nil if nothing clears the threshold and no bucket matches.
func (t *Table) FindBestMatch(message string, threshold float64) *Match {
	message = normalize(message)
	if message == "" {
		return nil
	}

	entries := t.Snapshot()
	if len(entries) == 0 {
		t.metrics.RecordCacheMiss("keyword_table")
		return nil
	}

	pipeline := []matcher{
		exactMatcher{},
		containMatcher{},
		overlapMatcher{threshold: threshold},
		fuzzyMatcher{minRatio: t.cfg.FuzzyMinRatio},
		bucketMatcher{buckets: t.cfg.IntentBuckets},
	}
	for _, m := range pipeline {
		if match := m.try(message, entries); match != nil {
			t.metrics.RecordCacheHit("keyword_table")
			return match
		}
	}
	t.metrics.RecordCacheMiss("keyword_table")
	return nil
}

// FindTopMatches collects all entries whose word-overlap score clears the
// threshold, sorted descending by score and truncated to limit.
func (t *Table) FindTopMatches(message string, threshold float64, limit int) []Match {
	message = normalize(message)
	if message == "" || limit <= 0 {
		return nil
	}

	entries := t.Snapshot()
	var matches []Match
	for _, e := range entries {
		score := wordOverlapScore(message, normalize(e.Keyword))
		if score >= threshold {
			matches = append(matches, Match{Entry: e, Score: score, MatchType: "word_overlap"})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Snapshot returns a copy of the live collection.
func (t *Table) Snapshot() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Count returns the number of live entries.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// LastRefresh returns the time of the last successful refresh.
func (t *Table) LastRefresh() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastRefresh
}

// Corpus serializes the collection as "keyword | answer" lines for use as an
// LLM grounding corpus.
func (t *Table) Corpus() string {
	entries := t.Snapshot()
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Keyword)
		b.WriteString(" | ")
		b.WriteString(e.Answer)
		b.WriteString("\n")
	}
	return b.String()
}

// parseRows converts raw sheet rows into entries. The first row is skipped
// when it looks like a header; rows without both cells are dropped.
func parseRows(rows [][]string, page string) []Entry {
	var entries []Entry
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		keyword := strings.TrimSpace(row[0])
		answer := strings.TrimSpace(row[1])
		if keyword == "" || answer == "" {
			continue
		}
		if i == 0 && isHeader(keyword) {
			continue
		}
		entries = append(entries, Entry{Keyword: keyword, Answer: answer, SourceSheet: page})
	}
	return entries
}

func isHeader(cell string) bool {
	switch strings.ToLower(cell) {
	case "keyword", "keywords", "คำถาม", "คีย์เวิร์ด", "question":
		return true
	}
	return false
}
