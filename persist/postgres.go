package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gofhir/profiletree/service"
)

// MigrationExpansionState is the DDL for the expansion_state table. It is
// safe to execute repeatedly.
const MigrationExpansionState = `
CREATE TABLE IF NOT EXISTS expansion_state (
    key        TEXT PRIMARY KEY,
    value      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// pgRow is a single row returned by QueryRow.
type pgRow interface {
	Scan(dest ...any) error
}

// pgConn is the subset of the pool the store uses.
type pgConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgRow
	Exec(ctx context.Context, sql string, args ...any) error
}

// PostgresStore keeps values in PostgreSQL.
type PostgresStore struct {
	db pgConn
}

type poolConn struct {
	pool *pgxpool.Pool
}

func (c poolConn) QueryRow(ctx context.Context, sql string, args ...any) pgRow {
	return c.pool.QueryRow(ctx, sql, args...)
}

func (c poolConn) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.pool.Exec(ctx, sql, args...)
	return err
}

// NewPostgresStore creates a store on an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: poolConn{pool: pool}}
}

// OpenPostgres connects to databaseURL and runs the migration. The caller
// closes the returned pool.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool, nil
}

// Migrate creates the expansion_state table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.db.Exec(ctx, MigrationExpansionState); err != nil {
		return fmt.Errorf("migrate expansion_state: %w", err)
	}
	return nil
}

// LoadExpanded implements service.ExpansionStore.
func (s *PostgresStore) LoadExpanded(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM expansion_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load expanded state %s: %w", key, err)
	}
	return value, nil
}

// SaveExpanded implements service.ExpansionStore. The value must be valid
// JSON.
func (s *PostgresStore) SaveExpanded(ctx context.Context, key string, value []byte) error {
	const query = `INSERT INTO expansion_state (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if err := s.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("save expanded state %s: %w", key, err)
	}
	return nil
}

var _ service.ExpansionStore = (*PostgresStore)(nil)
