// Package storage persists last-good data snapshots in SQLite so the bot
// can answer from stale data when every external source is down at startup.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// DB wraps the SQLite snapshot database.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (or creates) the snapshot database and initializes the schema.
func New(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=30000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := initSchema(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func initSchema(conn *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS keyword_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword TEXT NOT NULL,
		answer TEXT NOT NULL,
		source_sheet TEXT NOT NULL DEFAULT '',
		loaded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_keyword_entries_loaded_at ON keyword_entries(loaded_at);

	CREATE TABLE IF NOT EXISTS document_snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		text_zstd BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	`
	if _, err := conn.Exec(query); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
