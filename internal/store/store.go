// Package store persists builder configurations in PostgreSQL. Each
// session is a single JSONB snapshot row, replaced wholesale on every
// upsert so a session is always either the old state or the new one.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storeforge/storeforge/internal/builder"
)

// Store persists configurations in a storefronts table keyed by
// session id. It implements builder.Store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects a pool to databaseURL and verifies it with a ping.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing pool. The caller retains ownership.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Load returns the configuration for sessionID, or
// builder.ErrNotFound when the session has no stored state.
func (s *Store) Load(ctx context.Context, sessionID string) (*builder.Configuration, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM storefronts WHERE session_id = $1`,
		sessionID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, builder.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	var cfg builder.Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", sessionID, err)
	}
	return &cfg, nil
}

// Upsert replaces the stored snapshot for the configuration's session.
func (s *Store) Upsert(ctx context.Context, cfg *builder.Configuration) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", cfg.SessionID, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO storefronts (session_id, data, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (session_id)
		 DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		cfg.SessionID, data,
	)
	if err != nil {
		return fmt.Errorf("upserting session %s: %w", cfg.SessionID, err)
	}
	return nil
}

// Delete removes a session's stored snapshot. Missing rows are not an
// error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM storefronts WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	return nil
}
