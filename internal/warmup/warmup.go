// Package warmup loads both data sources at startup, restoring the last-good
// SQLite snapshot when a live fetch fails, and runs the periodic refresh
// loop that keeps sources and snapshots current.
package warmup

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pakawat-dev/support-linebot-go/internal/docstore"
	"github.com/pakawat-dev/support-linebot-go/internal/keywordtable"
	"github.com/pakawat-dev/support-linebot-go/internal/logger"
	"github.com/pakawat-dev/support-linebot-go/internal/storage"
)

// Manager wires the live sources to the snapshot store.
type Manager struct {
	table *keywordtable.Table
	docs  *docstore.Store
	db    *storage.DB
	log   *logger.Logger
}

// NewManager creates a warmup manager. db may be nil; snapshot restore and
// persistence are then skipped.
func NewManager(table *keywordtable.Table, docs *docstore.Store, db *storage.DB, log *logger.Logger) *Manager {
	return &Manager{
		table: table,
		docs:  docs,
		db:    db,
		log:   log.WithModule("warmup"),
	}
}

// Warm refreshes both sources concurrently. A failed live fetch falls back
// to the persisted snapshot; Warm only errors when a source has neither.
func (m *Manager) Warm(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.warmKeywords(gctx) })
	g.Go(func() error { return m.warmDocument(gctx) })
	return g.Wait()
}

func (m *Manager) warmKeywords(ctx context.Context) error {
	err := m.table.Refresh(ctx)
	if err == nil {
		m.persistKeywords(ctx)
		return nil
	}
	m.log.WithError(err).Warn("keyword refresh failed at startup; trying snapshot")

	if m.db == nil {
		return err
	}
	entries, loadedAt, loadErr := m.db.LoadKeywordEntries(ctx)
	if loadErr != nil {
		m.log.WithError(loadErr).Error("no keyword snapshot available")
		return err
	}
	m.table.Replace(entries, loadedAt)
	m.log.WithField("entries", len(entries)).
		WithField("loaded_at", loadedAt).
		Warn("serving stale keyword snapshot")
	return nil
}

func (m *Manager) warmDocument(ctx context.Context) error {
	_, err := m.docs.GetContent(ctx, true)
	if err == nil {
		m.persistDocument(ctx)
		return nil
	}
	m.log.WithError(err).Warn("document fetch failed at startup; trying snapshot")

	if m.db == nil {
		return err
	}
	text, fetchedAt, loadErr := m.db.LoadDocument(ctx)
	if loadErr != nil {
		m.log.WithError(loadErr).Error("no document snapshot available")
		return err
	}
	m.docs.Replace(text, fetchedAt)
	m.log.WithField("fetched_at", fetchedAt).Warn("serving stale document snapshot")
	return nil
}

// RunRefreshLoop refreshes both sources on the given interval until the
// context is cancelled. Refresh failures keep the current snapshots; the
// stores swap whole values only on success.
func (m *Manager) RunRefreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.refreshOnce(ctx)
		}
	}
}

func (m *Manager) refreshOnce(ctx context.Context) {
	if err := m.table.Refresh(ctx); err != nil {
		m.log.WithError(err).Warn("periodic keyword refresh failed")
	} else {
		m.persistKeywords(ctx)
	}

	if _, err := m.docs.GetContent(ctx, true); err != nil {
		m.log.WithError(err).Warn("periodic document refresh failed")
	} else {
		m.persistDocument(ctx)
	}
}

func (m *Manager) persistKeywords(ctx context.Context) {
	if m.db == nil {
		return
	}
	entries := m.table.Snapshot()
	if len(entries) == 0 {
		return
	}
	if err := m.db.SaveKeywordEntries(ctx, entries, m.table.LastRefresh()); err != nil {
		m.log.WithError(err).Warn("persist keyword snapshot failed")
	}
}

func (m *Manager) persistDocument(ctx context.Context) {
	if m.db == nil {
		return
	}
	text := m.docs.Cached()
	if text == "" {
		return
	}
	if err := m.db.SaveDocument(ctx, text, m.docs.LastFetched()); err != nil {
		m.log.WithError(err).Warn("persist document snapshot failed")
	}
}
