// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package wal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aether3d/capturecore/internal/audit"
	"github.com/aether3d/capturecore/internal/merkle"
	"github.com/aether3d/capturecore/internal/metrics"
)

// Log is the WAL's exclusively-owned actor. The source models it as a
// single-task actor reached only through message passing; a mutex-guarded
// struct is the idiomatic Go rendering of the same guarantee — every
// exported method locks for its whole body, so operations still execute
// in a strict enqueue order and no caller ever observes a half-updated
// uncommitted set.
type Log struct {
	mu          sync.Mutex
	storage     Storage
	auditLogger *audit.Logger
	next        uint64
	uncommitted map[uint64]Entry
	tree        *merkle.Tree
}

// NewLog constructs a Log over storage with next_entry_id starting at 1.
// Callers that are resuming from a prior run should call Recover
// immediately after construction.
func NewLog(storage Storage, auditLogger *audit.Logger) *Log {
	return &Log{
		storage:     storage,
		auditLogger: auditLogger,
		next:        1,
		uncommitted: make(map[uint64]Entry),
		tree:        merkle.New(),
	}
}

func hashArray(b []byte) merkle.Hash {
	var h merkle.Hash
	copy(h[:], b)
	return h
}

// Append assigns the next entry_id, writes an uncommitted record, and
// fsyncs before returning. The returned Entry's MerkleState reflects the
// tree's state immediately after this entry's leaf was inserted.
func (l *Log) Append(ctx context.Context, hash []byte, signedEntryBytes []byte) (Entry, error) {
	if len(hash) != 32 {
		return Entry{}, ErrInvalidHashLength
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entryID := l.next
	l.tree.InsertHash(hashArray(hash))

	entry := Entry{
		EntryID:          entryID,
		Hash:             append([]byte(nil), hash...),
		SignedEntryBytes: append([]byte(nil), signedEntryBytes...),
		MerkleState:      l.tree.State(),
		Committed:        false,
		TimestampNS:      time.Now().UnixNano(),
	}

	if err := l.storage.Persist(ctx, entry); err != nil {
		metrics.RecordWALAppend("failure", float64(len(l.uncommitted)))
		return Entry{}, fmt.Errorf("wal: append persist: %w", err)
	}
	if err := l.storage.Fsync(ctx); err != nil {
		metrics.RecordWALAppend("failure", float64(len(l.uncommitted)))
		return Entry{}, fmt.Errorf("wal: append fsync: %w", err)
	}

	// Only advance next and expose the entry as uncommitted once it is
	// durable: a cancellation or I/O error before this point leaves the
	// log exactly as if append never happened.
	l.next++
	l.uncommitted[entryID] = entry.clone()

	if l.auditLogger != nil {
		l.auditLogger.Append("wal", entryID, "success")
	}
	metrics.RecordWALAppend("success", float64(len(l.uncommitted)))

	return entry.clone(), nil
}

// Commit marks entry committed, writes the updated record, fsyncs, then
// removes it from the uncommitted set.
func (l *Log) Commit(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.uncommitted[entry.EntryID]; !ok {
		return ErrNotUncommitted
	}

	committed := entry.clone()
	committed.Committed = true
	committed.TimestampNS = time.Now().UnixNano()

	if err := l.storage.Persist(ctx, committed); err != nil {
		if l.auditLogger != nil {
			l.auditLogger.Commit("wal", entry.EntryID, "failure")
		}
		metrics.RecordWALCommit("failure", float64(len(l.uncommitted)))
		return fmt.Errorf("wal: commit persist: %w", err)
	}
	if err := l.storage.Fsync(ctx); err != nil {
		if l.auditLogger != nil {
			l.auditLogger.Commit("wal", entry.EntryID, "failure")
		}
		metrics.RecordWALCommit("failure", float64(len(l.uncommitted)))
		return fmt.Errorf("wal: commit fsync: %w", err)
	}

	delete(l.uncommitted, entry.EntryID)

	if l.auditLogger != nil {
		l.auditLogger.Commit("wal", entry.EntryID, "success")
	}
	metrics.RecordWALCommit("success", float64(len(l.uncommitted)))

	return nil
}

// Uncommitted returns a deterministically ordered (by entry_id) snapshot
// of entries not yet committed.
func (l *Log) Uncommitted() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sortedEntries(l.uncommitted)
}

// Recover reads all persisted records, restores the uncommitted set and
// the Merkle tree, sets next_entry_id to max(entry_id)+1, and returns the
// committed subset sorted by entry_id. It does not itself perform the
// fail-closed cross-verification described for recovery — see
// RecoveryManager for that.
func (l *Log) Recover(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.storage.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("wal: recover: %w", err)
	}

	byID := make(map[uint64]Entry, len(records))
	var maxID uint64
	for _, r := range records {
		byID[r.EntryID] = r.clone()
		if r.EntryID > maxID {
			maxID = r.EntryID
		}
	}

	committed := make(map[uint64]Entry)
	uncommitted := make(map[uint64]Entry)
	var latestByID uint64
	var latestState []byte
	for id, e := range byID {
		if e.Committed {
			committed[id] = e
		} else {
			uncommitted[id] = e
		}
		if id >= latestByID {
			latestByID = id
			latestState = e.MerkleState
		}
	}

	tree := merkle.New()
	if len(latestState) > 0 {
		restored, err := merkle.Restore(latestState)
		if err == nil {
			tree = restored
		}
	}

	l.uncommitted = uncommitted
	l.tree = tree
	if maxID > 0 {
		l.next = maxID + 1
	} else {
		l.next = 1
	}

	return sortedEntries(committed), nil
}

// Close releases the underlying storage resources.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.storage.Close()
}

func sortedEntries(m map[uint64]Entry) []Entry {
	out := make([]Entry, 0, len(m))
	for _, e := range m {
		out = append(out, e.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryID < out[j].EntryID })
	return out
}
