// Package store persists full PlayerState snapshots to Postgres so a game
// survives an API restart. Persistence is optional: when no DATABASE_URL is
// set the server runs purely in memory and this package is never touched.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"centsible/internal/game"
)

// ErrNoSnapshot is returned by LoadLatest when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no saved game snapshot")

const schema = `
CREATE TABLE IF NOT EXISTS game_snapshots (
    id         BIGSERIAL PRIMARY KEY,
    state      JSONB       NOT NULL,
    saved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against databaseURL and ensures the snapshot table
// exists.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 5
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// SaveSnapshot appends the state as a new snapshot row and prunes everything
// but the most recent few, keeping the table small.
func (s *Store) SaveSnapshot(ctx context.Context, state game.PlayerState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `INSERT INTO game_snapshots (state) VALUES ($1)`, payload); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		DELETE FROM game_snapshots
		WHERE id NOT IN (SELECT id FROM game_snapshots ORDER BY id DESC LIMIT 10)`)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// LoadLatest returns the most recently saved state.
func (s *Store) LoadLatest(ctx context.Context) (game.PlayerState, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT state FROM game_snapshots ORDER BY id DESC LIMIT 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.PlayerState{}, ErrNoSnapshot
	}
	if err != nil {
		return game.PlayerState{}, fmt.Errorf("load snapshot: %w", err)
	}
	var state game.PlayerState
	if err := json.Unmarshal(payload, &state); err != nil {
		return game.PlayerState{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return state, nil
}
