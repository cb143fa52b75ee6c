// Package store provides the key-value slot the Life OS snapshot lives in.
//
// # Architecture
//
// Store is a minimal key-value interface: a whole value is read or written
// per key, and a write replaces the previous value in full. There is no
// partial update and no transaction beyond "last write wins".
//
// Implementations:
//
//   - SQLiteStore: the default, a single file via modernc.org/sqlite (no cgo)
//   - PostgresStore: a shared database via github.com/jackc/pgx/v5
//   - MockStore: in-memory, with hooks to inject write failures in tests
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode:
//
//	PRAGMA journal_mode=WAL;
//
// Database file locations:
//
//   - Default: ~/.local/share/lifeos/lifeos.db
//   - Testing: a file under t.TempDir() or :memory:
//
// # Schema
//
// Both SQL backends use the same table:
//
//	CREATE TABLE kv (
//	    key        TEXT PRIMARY KEY,
//	    value      TEXT NOT NULL,
//	    updated_at TEXT NOT NULL
//	);
//
// # Error Handling
//
//   - ErrNotFound: no value is stored under the key
//   - ErrQuotaExceeded: the value is larger than the configured quota
//
// All methods accept context.Context for cancellation support.
package store
