// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject write failures

package store

import (
	"context"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu      sync.RWMutex
	values  map[string][]byte
	updated map[string]time.Time

	// SetErr, when non-nil, is returned by every Set call and nothing is stored.
	SetErr error
	// SetCalls counts Set invocations, including failed ones.
	SetCalls int
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		values:  make(map[string][]byte),
		updated: make(map[string]time.Time),
	}
}

// Get returns a copy of the value stored under key.
func (m *MockStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a copy of value under key.
func (m *MockStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls++
	if m.SetErr != nil {
		return m.SetErr
	}

	v := make([]byte, len(value))
	copy(v, value)
	m.values[key] = v
	m.updated[key] = time.Now().UTC()
	return nil
}

// Stat returns metadata for key.
func (m *MockStore) Stat(ctx context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &Entry{Key: key, Size: len(v), UpdatedAt: m.updated[key]}, nil
}

// Ping always succeeds.
func (m *MockStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// Calls returns the number of Set invocations so far.
func (m *MockStore) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.SetCalls
}

// FailWrites makes subsequent Set calls return err. Pass nil to restore.
func (m *MockStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetErr = err
}

// Compile-time interface checks
var (
	_ Store = (*MockStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
