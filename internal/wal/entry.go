// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package wal implements the crash-consistent write-ahead log that backs
// capture-session durability: entries are appended uncommitted, fsynced,
// later committed, and on restart replayed through a fail-closed
// recovery manager that cross-verifies them against a signed audit log
// and a Merkle tree.
package wal

import "errors"

// Entry is one write-ahead-log record. Entries are immutable after
// construction and ordered by strictly increasing EntryID.
type Entry struct {
	EntryID          uint64
	Hash             []byte // 32-byte content hash; any other length is corruption
	SignedEntryBytes []byte
	MerkleState      []byte
	Committed        bool
	TimestampNS      int64
}

// clone returns a deep copy so callers can't mutate a Log's internal
// state through a returned Entry's byte slices.
func (e Entry) clone() Entry {
	out := e
	out.Hash = append([]byte(nil), e.Hash...)
	out.SignedEntryBytes = append([]byte(nil), e.SignedEntryBytes...)
	out.MerkleState = append([]byte(nil), e.MerkleState...)
	return out
}

// ErrInvalidHashLength is returned when a caller supplies a hash that
// isn't exactly 32 bytes.
var ErrInvalidHashLength = errors.New("wal: hash must be exactly 32 bytes")

// ErrNotUncommitted is returned by Commit when the referenced entry is
// not present in the uncommitted set.
var ErrNotUncommitted = errors.New("wal: entry is not in the uncommitted set")
