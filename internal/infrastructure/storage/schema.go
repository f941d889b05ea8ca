package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var sqlitePragmas = []string{
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// schema uses {ts} for the timestamp column type of the active dialect.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS papers (
		id              TEXT PRIMARY KEY,
		tweet_id        TEXT NOT NULL UNIQUE,
		tweet_text      TEXT NOT NULL,
		tweet_url       TEXT NOT NULL,
		author_name     TEXT NOT NULL,
		author_username TEXT NOT NULL,
		like_count      INTEGER NOT NULL DEFAULT 0,
		retweet_count   INTEGER NOT NULL DEFAULT 0,
		reply_count     INTEGER NOT NULL DEFAULT 0,
		paper_title     TEXT,
		paper_url       TEXT NOT NULL CHECK (paper_url <> ''),
		paper_abstract  TEXT,
		created_at      {ts},
		fetched_at      {ts} NOT NULL,
		abstract_checked_at {ts}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_papers_like_count ON papers (like_count DESC)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id         TEXT PRIMARY KEY,
		paper_id   TEXT NOT NULL REFERENCES papers (id),
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		tags       TEXT NOT NULL DEFAULT '[]',
		cover_text TEXT NOT NULL DEFAULT '[]',
		emoji_list TEXT NOT NULL DEFAULT '[]',
		created_at {ts} NOT NULL,
		updated_at {ts} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_paper_id ON notes (paper_id)`,
	`CREATE TABLE IF NOT EXISTS publish_records (
		id           TEXT PRIMARY KEY,
		note_id      TEXT NOT NULL REFERENCES notes (id),
		status       TEXT NOT NULL,
		published_at {ts},
		created_at   {ts} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_publish_records_note_id ON publish_records (note_id, status)`,
}

// Open connects to the configured database and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// A single connection keeps ":memory:" databases shared and serializes writers.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if driver == DriverSQLite {
		for _, pragma := range sqlitePragmas {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
			}
		}
	}

	repo := NewRepository(db, driver)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Migrate creates missing tables and indexes.
func (r *Repository) Migrate(ctx context.Context) error {
	tsType := "TIMESTAMPTZ"
	if r.driver == DriverSQLite {
		tsType = "DATETIME"
	}

	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, strings.ReplaceAll(stmt, "{ts}", tsType)); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func placeholders(driver string) sq.StatementBuilderType {
	if driver == DriverSQLite {
		return sq.StatementBuilder.PlaceholderFormat(sq.Question)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
