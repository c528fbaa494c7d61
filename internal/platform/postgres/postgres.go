// Package postgres opens the database/sql pool and owns the schema for the
// postgres storage backend.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"evote/internal/platform/config"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Open connects with lib/pq and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Schema creates the voting tables. vote_log.voter_id is UNIQUE so the
// database itself refuses a second vote from the same voter.
const Schema = `
CREATE TABLE IF NOT EXISTS voters (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL CHECK (role IN ('voter', 'admin')),
	has_voted  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS candidates (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	party       TEXT NOT NULL,
	vote_count  INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
	created_seq BIGSERIAL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS vote_log (
	seq          BIGSERIAL PRIMARY KEY,
	candidate_id UUID NOT NULL REFERENCES candidates(id),
	voter_id     UUID NOT NULL UNIQUE REFERENCES voters(id),
	voted_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vote_log_candidate ON vote_log(candidate_id, seq);
`

// Migrate applies Schema. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
