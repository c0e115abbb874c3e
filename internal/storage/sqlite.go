package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"snpedia/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snp_pages (
	name       TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	revised_at TIMESTAMP,
	stored_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const sqliteUpsert = `
INSERT INTO snp_pages (name, content, revised_at, stored_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (name) DO UPDATE
SET content = excluded.content, revised_at = excluded.revised_at, stored_at = CURRENT_TIMESTAMP`

// SQLiteSink upserts records into a local SQLite database.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at path. ":memory:" is accepted.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Store(ctx context.Context, r models.Record) error {
	var revised any
	if !r.Timestamp.IsZero() {
		revised = r.Timestamp.UTC()
	}
	if _, err := s.db.ExecContext(ctx, sqliteUpsert, r.Name, r.Content, revised); err != nil {
		return &WriteError{Sink: s.Name(), Name: r.Name, Err: err}
	}
	return nil
}

// Content returns the stored content of a page.
func (s *SQLiteSink) Content(ctx context.Context, name string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM snp_pages WHERE name = ?`, name).Scan(&content)
	return content, err
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
