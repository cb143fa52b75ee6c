// ABOUTME: Key-value Store interface shared by SQLite, Postgres and mock backends
// ABOUTME: Defines the sentinel errors and the Entry metadata type

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no value is stored under a key
var ErrNotFound = errors.New("not found")

// ErrQuotaExceeded is returned when a value is larger than the store's quota
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Entry describes a stored value without its payload.
type Entry struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}

// Store is a whole-value key-value store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Stat returns metadata for key, or ErrNotFound.
	Stat(ctx context.Context, key string) (*Entry, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}

// checkQuota returns ErrQuotaExceeded when quota is positive and value exceeds it.
func checkQuota(quota int, value []byte) error {
	if quota > 0 && len(value) > quota {
		return ErrQuotaExceeded
	}
	return nil
}
