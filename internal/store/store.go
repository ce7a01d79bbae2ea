// Package store is the Local Store: a single-file SQLite database holding
// posts, links, occurrences, archives, artifacts, video files, job steps,
// and rate-limit counters. It is authoritative for all pipeline state; the
// object store is derived and may be absent or stale without corrupting it.
//
// Replaces the teacher's pkg/db (db.go/schema.go/operations.go): same
// *sql.DB wrapper and fmt.Errorf-wrapping idiom, but schema is applied via
// goose migrations instead of an inline ensureSchemaExists string.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/forumarchiver/forumarchiver/internal/store/migrations"
)

// Store wraps the SQLite connection and logger shared by every CRUD file
// in this package.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if absent) the SQLite database at path, enables WAL
// mode and foreign keys, and applies pending migrations.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	// A single writer at a time is the engine's own guarantee (§5); cap
	// connections so database/sql doesn't fan out writers SQLite would
	// just serialize anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	if log == nil {
		log = slog.Default()
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw connection for callers (e.g. the backup scheduler's
// VACUUM INTO) that need it directly.
func (s *Store) DB() *sql.DB {
	return s.db
}
