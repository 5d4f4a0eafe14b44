// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package wal

import (
	"context"
	"sync"

	"github.com/aether3d/capturecore/internal/audit"
)

// memStorage is an in-memory Storage used only by this package's tests.
// It mimics the file-backed scheme's "overwrite by re-append, reader
// takes the last occurrence" semantics via a plain map keyed by entry_id.
type memStorage struct {
	mu      sync.Mutex
	records map[uint64]Entry
	closed  bool
	failOps map[string]bool
}

func newMemStorage() *memStorage {
	return &memStorage{records: make(map[uint64]Entry), failOps: make(map[string]bool)}
}

func (s *memStorage) Persist(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOps["persist"] {
		return errPersist
	}
	s.records[e.EntryID] = e.clone()
	return nil
}

func (s *memStorage) Fsync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOps["fsync"] {
		return errFsync
	}
	return nil
}

func (s *memStorage) ReadAll(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.records))
	for _, e := range s.records {
		out = append(out, e.clone())
	}
	return out, nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func testSignerWAL() *audit.Signer {
	s, err := audit.NewSigner([]byte("wal-test-signing-key"))
	if err != nil {
		panic(err)
	}
	return s
}

func testHash(b byte) []byte {
	h := make([]byte, 32)
	for i := range h {
		h[i] = b
	}
	return h
}

var (
	errPersist = errPersistSentinel{}
	errFsync   = errFsyncSentinel{}
)

type errPersistSentinel struct{}

func (errPersistSentinel) Error() string { return "memStorage: simulated persist failure" }

type errFsyncSentinel struct{}

func (errFsyncSentinel) Error() string { return "memStorage: simulated fsync failure" }
