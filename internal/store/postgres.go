package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates the table used by PostgresBackend.
const Schema = `CREATE TABLE IF NOT EXISTS portal_collections (
    key TEXT PRIMARY KEY,
    payload JSONB NOT NULL,
    revision BIGINT NOT NULL DEFAULT 1,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var _ Versioned = (*PostgresBackend)(nil)

// PostgresBackend keeps one JSONB row per collection key. Every write bumps the row revision.
type PostgresBackend struct {
	db *sqlx.DB
}

// NewPostgresBackend constructs the backend.
func NewPostgresBackend(db *sqlx.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// EnsureSchema creates the backing table when missing.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure portal_collections: %w", err)
	}
	return nil
}

// Load fetches the payload stored for key.
func (b *PostgresBackend) Load(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT payload FROM portal_collections WHERE key = $1`
	var payload []byte
	if err := b.db.GetContext(ctx, &payload, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("load collection %s: %w", key, err)
	}
	return payload, nil
}

// Save upserts the payload for key.
func (b *PostgresBackend) Save(ctx context.Context, key string, payload []byte) error {
	const query = `INSERT INTO portal_collections (key, payload, revision, updated_at)
VALUES ($1, $2, 1, NOW())
ON CONFLICT (key)
DO UPDATE SET payload = EXCLUDED.payload, revision = portal_collections.revision + 1, updated_at = NOW()`
	if _, err := b.db.ExecContext(ctx, query, key, string(payload)); err != nil {
		return fmt.Errorf("save collection %s: %w", key, err)
	}
	return nil
}

// Delete removes the row for key.
func (b *PostgresBackend) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM portal_collections WHERE key = $1`
	if _, err := b.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete collection %s: %w", key, err)
	}
	return nil
}

// Revision reports how many times key has been written. Missing keys report zero.
func (b *PostgresBackend) Revision(ctx context.Context, key string) (int64, error) {
	const query = `SELECT revision FROM portal_collections WHERE key = $1`
	var revision int64
	if err := b.db.GetContext(ctx, &revision, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("load revision %s: %w", key, err)
	}
	return revision, nil
}
