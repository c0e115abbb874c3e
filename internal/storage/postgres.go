package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"snpedia/internal/models"
)

const pagesSchema = `
CREATE TABLE IF NOT EXISTS snp_pages (
	name       TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	revised_at TIMESTAMPTZ,
	stored_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertPage = `
INSERT INTO snp_pages (name, content, revised_at, stored_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (name) DO UPDATE
SET content = EXCLUDED.content, revised_at = EXCLUDED.revised_at, stored_at = now()`

// PostgresSink upserts records into the snp_pages table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects to dsn and makes sure the table exists.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pagesSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create snp_pages: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Store(ctx context.Context, r models.Record) error {
	if _, err := s.pool.Exec(ctx, upsertPage, r.Name, r.Content, nullTime(r.Timestamp)); err != nil {
		return &WriteError{Sink: s.Name(), Name: r.Name, Err: err}
	}
	return nil
}

// Content returns the stored content of a page.
func (s *PostgresSink) Content(ctx context.Context, name string) (string, error) {
	var content string
	err := s.pool.QueryRow(ctx, `SELECT content FROM snp_pages WHERE name = $1`, name).Scan(&content)
	return content, err
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
