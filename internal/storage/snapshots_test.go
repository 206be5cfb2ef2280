package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pakawat-dev/support-linebot-go/internal/errors"
	"github.com/pakawat-dev/support-linebot-go/internal/keywordtable"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestKeywordEntries_RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, _, err := db.LoadKeywordEntries(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	loadedAt := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	entries := []keywordtable.Entry{
		{Keyword: "ราคา", Answer: "1000 บาท", SourceSheet: "FAQ"},
		{Keyword: "เวลาเปิด", Answer: "9:00-17:00", SourceSheet: "FAQ"},
	}
	require.NoError(t, db.SaveKeywordEntries(ctx, entries, loadedAt))

	got, gotAt, err := db.LoadKeywordEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	assert.Equal(t, loadedAt.Unix(), gotAt.Unix())
}

func TestKeywordEntries_SaveReplacesWholesale(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveKeywordEntries(ctx, []keywordtable.Entry{
		{Keyword: "old", Answer: "old answer"},
	}, time.Now()))
	require.NoError(t, db.SaveKeywordEntries(ctx, []keywordtable.Entry{
		{Keyword: "new", Answer: "new answer"},
	}, time.Now()))

	got, _, err := db.LoadKeywordEntries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Keyword)
}

func TestDocument_RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, _, err := db.LoadDocument(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	text := strings.Repeat("ข้อมูลธุรกิจ สอนขับรถยนต์\n", 200)
	fetchedAt := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, db.SaveDocument(ctx, text, fetchedAt))

	got, gotAt, err := db.LoadDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, text, got)
	assert.Equal(t, fetchedAt.Unix(), gotAt.Unix())
}

func TestDocument_SaveOverwrites(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveDocument(ctx, "first", time.Now()))
	require.NoError(t, db.SaveDocument(ctx, "second", time.Now()))

	got, _, err := db.LoadDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}
