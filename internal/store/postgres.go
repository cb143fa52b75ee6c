// ABOUTME: PostgreSQL implementation of the Store interface using pgx
// ABOUTME: Shares the kv table layout with the SQLite backend

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	quota  int
	logger *slog.Logger
}

// NewPostgresStore connects to dsn and creates the kv table if needed.
// quota limits the size of a single value in bytes; zero means unlimited.
func NewPostgresStore(ctx context.Context, dsn string, quota int) (*PostgresStore, error) {
	logger := slog.Default().With("component", "store")

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		quota:  quota,
		logger: logger,
	}

	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("Postgres store initialized")
	return s, nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.logger.Info("closing Postgres store")
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Get retrieves the value stored under key.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying key %q: %w", key, err)
	}
	return []byte(value), nil
}

// Set saves or replaces the value stored under key.
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkQuota(s.quota, value); err != nil {
		return fmt.Errorf("saving key %q (%d bytes): %w", key, len(value), err)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving key %q: %w", key, err)
	}

	s.logger.Debug("saved value", "key", key, "size", len(value))
	return nil
}

// Stat returns size and modification time for key.
func (s *PostgresStore) Stat(ctx context.Context, key string) (*Entry, error) {
	var size int
	var updatedAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT octet_length(value), updated_at FROM kv WHERE key = $1`, key,
	).Scan(&size, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying key %q: %w", key, err)
	}
	return &Entry{Key: key, Size: size, UpdatedAt: updatedAt.UTC()}, nil
}
