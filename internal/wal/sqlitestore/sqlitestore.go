// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package sqlitestore is a SQLite-WAL-backed wal.Storage implementation:
// entries land in a table on a connection pool running in SQLite's own
// journal_mode=WAL, and Fsync is a full WAL checkpoint rather than a
// per-write fsync.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aether3d/capturecore/internal/persistence/sqlite"
	"github.com/aether3d/capturecore/internal/wal"
)

const schema = `
CREATE TABLE IF NOT EXISTS wal_entries (
	entry_id           INTEGER PRIMARY KEY,
	hash               BLOB NOT NULL,
	signed_entry_bytes BLOB,
	merkle_state       BLOB,
	committed          INTEGER NOT NULL,
	timestamp_ns       INTEGER NOT NULL
);`

// Config is the sqlite package's connection configuration, reused
// as-is: the WAL store has no operational needs beyond busy-timeout and
// pool sizing.
type Config = sqlite.Config

// DefaultConfig returns the module's standard SQLite operating
// parameters, with the pool capped to a single connection below.
func DefaultConfig() Config {
	return sqlite.DefaultConfig()
}

// Store is a SQLite-WAL-backed wal.Storage.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if absent) the SQLite database at path via the
// shared sqlite.Open helper, then ensures the wal_entries table exists.
func Open(path string, cfg Config) (*Store, error) {
	// A WAL-backed WAL store is inherently single-writer; one connection
	// avoids SQLITE_BUSY churn between goroutines sharing this *Store.
	cfg.MaxOpenConns = 1

	db, err := sqlite.Open(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// VerifyIntegrity runs SQLite's own page-level integrity check against
// the store's database file, returning any diagnostic lines. mode is
// "quick" or "full"; see sqlite.VerifyIntegrity.
func (s *Store) VerifyIntegrity(mode string) ([]string, error) {
	return sqlite.VerifyIntegrity(s.path, mode)
}

// Persist upserts e into wal_entries by entry_id.
func (s *Store) Persist(ctx context.Context, e wal.Entry) error {
	var committed int
	if e.Committed {
		committed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wal_entries (entry_id, hash, signed_entry_bytes, merkle_state, committed, timestamp_ns)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET
			hash = excluded.hash,
			signed_entry_bytes = excluded.signed_entry_bytes,
			merkle_state = excluded.merkle_state,
			committed = excluded.committed,
			timestamp_ns = excluded.timestamp_ns
	`, e.EntryID, e.Hash, e.SignedEntryBytes, e.MerkleState, committed, e.TimestampNS)
	if err != nil {
		return fmt.Errorf("sqlitestore: persist: %w", err)
	}
	return nil
}

// Fsync forces a full WAL checkpoint, folding the write-ahead log back
// into the main database file.
func (s *Store) Fsync(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(FULL);"); err != nil {
		return fmt.Errorf("sqlitestore: checkpoint: %w", err)
	}
	return nil
}

// ReadAll returns every persisted entry, ordered by entry_id.
func (s *Store) ReadAll(ctx context.Context) ([]wal.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_id, hash, signed_entry_bytes, merkle_state, committed, timestamp_ns
		FROM wal_entries
		ORDER BY entry_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: read all: %w", err)
	}
	defer rows.Close()

	var out []wal.Entry
	for rows.Next() {
		var e wal.Entry
		var committed int
		if err := rows.Scan(&e.EntryID, &e.Hash, &e.SignedEntryBytes, &e.MerkleState, &committed, &e.TimestampNS); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan: %w", err)
		}
		e.Committed = committed != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: rows: %w", err)
	}
	return out, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
