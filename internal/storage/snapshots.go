package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	apperrors "github.com/pakawat-dev/support-linebot-go/internal/errors"
	"github.com/pakawat-dev/support-linebot-go/internal/keywordtable"
)

// SaveKeywordEntries replaces the persisted keyword snapshot wholesale.
func (db *DB) SaveKeywordEntries(ctx context.Context, entries []keywordtable.Entry, loadedAt time.Time) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM keyword_entries"); err != nil {
		return fmt.Errorf("clear keyword entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO keyword_entries (keyword, answer, source_sheet, loaded_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	ts := loadedAt.Unix()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Keyword, e.Answer, e.SourceSheet, ts); err != nil {
			return fmt.Errorf("insert keyword entry: %w", err)
		}
	}
	return tx.Commit()
}

// LoadKeywordEntries returns the persisted keyword snapshot. ErrNotFound
// when nothing has been saved yet.
func (db *DB) LoadKeywordEntries(ctx context.Context) ([]keywordtable.Entry, time.Time, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT keyword, answer, source_sheet, loaded_at FROM keyword_entries ORDER BY id")
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query keyword entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []keywordtable.Entry
	var loadedAt int64
	for rows.Next() {
		var e keywordtable.Entry
		if err := rows.Scan(&e.Keyword, &e.Answer, &e.SourceSheet, &loadedAt); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan keyword entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterate keyword entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, time.Time{}, apperrors.ErrNotFound
	}
	return entries, time.Unix(loadedAt, 0), nil
}

// SaveDocument replaces the persisted document snapshot. The text is stored
// zstd-compressed; knowledge documents compress well and stay small on disk.
func (db *DB) SaveDocument(ctx context.Context, text string, fetchedAt time.Time) error {
	compressed, err := compress([]byte(text))
	if err != nil {
		return fmt.Errorf("compress document: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO document_snapshot (id, text_zstd, fetched_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET text_zstd = excluded.text_zstd, fetched_at = excluded.fetched_at`,
		compressed, fetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("save document snapshot: %w", err)
	}
	return nil
}

// LoadDocument returns the persisted document snapshot. ErrNotFound when
// nothing has been saved yet.
func (db *DB) LoadDocument(ctx context.Context) (string, time.Time, error) {
	var compressed []byte
	var fetchedAt int64
	err := db.conn.QueryRowContext(ctx,
		"SELECT text_zstd, fetched_at FROM document_snapshot WHERE id = 1").Scan(&compressed, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, apperrors.ErrNotFound
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("query document snapshot: %w", err)
	}

	text, err := decompress(compressed)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("decompress document: %w", err)
	}
	return string(text), time.Unix(fetchedAt, 0), nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
