package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx used by PostgresStore.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS csv_sessions (
	id         TEXT PRIMARY KEY,
	file_name  TEXT NOT NULL DEFAULT '',
	document   BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const upsertSession = `
INSERT INTO csv_sessions (id, file_name, document, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET file_name = EXCLUDED.file_name,
    document = EXCLUDED.document,
    updated_at = EXCLUDED.updated_at`

// PostgresStore keeps session snapshots in PostgreSQL so they survive restarts.
// Each session is one row holding the whole document as JSON in a BYTEA
// column: jsonb rejects \u0000, which NUL bytes in cells encode to.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore wraps db. Call EnsureSchema once before use.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the sessions table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createSessionsTable); err != nil {
		return fmt.Errorf("create csv_sessions: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	var (
		raw       []byte
		updatedAt time.Time
	)
	err := p.db.QueryRow(ctx,
		"SELECT document, updated_at FROM csv_sessions WHERE id = $1", id,
	).Scan(&raw, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}

	return &Session{ID: id, Document: &doc, UpdatedAt: updatedAt}, nil
}

func (p *PostgresStore) Put(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s.Document)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}

	var name string
	if s.Document != nil {
		name = s.Document.Name
	}

	if _, err := p.db.Exec(ctx, upsertSession, s.ID, name, raw, s.UpdatedAt); err != nil {
		return fmt.Errorf("put session %s: %w", s.ID, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := p.db.Exec(ctx, "DELETE FROM csv_sessions WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (p *PostgresStore) DeleteIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, "DELETE FROM csv_sessions WHERE updated_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete idle sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
