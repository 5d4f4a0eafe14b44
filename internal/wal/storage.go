// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package wal

import "context"

// Storage is the durability boundary a Log drives. A backend persists
// whatever Entry it's given — append writes a fresh, uncommitted record;
// commit re-persists the same entry_id with Committed set — and Fsync
// makes the most recent Persist durable before the call returns.
//
// Implementations must tolerate concurrent ReadAll calls (for recover)
// but are exclusively owned by one Log for writes; nothing in this
// package guards against two Logs sharing one Storage concurrently.
type Storage interface {
	// Persist writes or overwrites the record for e.EntryID.
	Persist(ctx context.Context, e Entry) error

	// Fsync makes all Persist calls issued so far durable.
	Fsync(ctx context.Context) error

	// ReadAll returns every persisted record, including both committed
	// and uncommitted entries, in no particular order.
	ReadAll(ctx context.Context) ([]Entry, error)

	// Close releases the storage backend's resources.
	Close() error
}
