// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package wal

import (
	"context"
	"testing"

	"github.com/aether3d/capturecore/internal/audit"
	"github.com/stretchr/testify/require"
)

func TestRecoveryManagerSucceedsOnConsistentLog(t *testing.T) {
	storage := newMemStorage()
	log := NewLog(storage, audit.NewLogger(testSignerWAL()))
	ctx := context.Background()

	e1, err := log.Append(ctx, testHash(1), nil)
	require.NoError(t, err)
	_, err = log.Append(ctx, testHash(2), nil)
	require.NoError(t, err)
	require.NoError(t, log.Commit(ctx, e1))

	rm := NewRecoveryManager(NewLog(storage, audit.NewLogger(testSignerWAL())), audit.NewLogger(testSignerWAL()))
	committed, err := rm.Recover(ctx)
	require.NoError(t, err)
	require.Len(t, committed, 1)
	require.Equal(t, uint64(1), committed[0].EntryID)
}

func TestRecoveryManagerFailsClosedOnCorruptHash(t *testing.T) {
	storage := newMemStorage()
	log := NewLog(storage, audit.NewLogger(testSignerWAL()))
	ctx := context.Background()

	e1, err := log.Append(ctx, testHash(1), nil)
	require.NoError(t, err)
	require.NoError(t, log.Commit(ctx, e1))

	// Corrupt the persisted record directly, simulating on-disk bit rot.
	storage.mu.Lock()
	corrupt := storage.records[1]
	corrupt.Hash = corrupt.Hash[:16]
	storage.records[1] = corrupt
	storage.mu.Unlock()

	rm := NewRecoveryManager(NewLog(storage, audit.NewLogger(testSignerWAL())), audit.NewLogger(testSignerWAL()))
	_, err = rm.Recover(ctx)
	require.Error(t, err)
	var rf *RecoveryFailed
	require.ErrorAs(t, err, &rf)
}

func TestRecoveryManagerFailsClosedOnMerkleStateTamper(t *testing.T) {
	storage := newMemStorage()
	log := NewLog(storage, audit.NewLogger(testSignerWAL()))
	ctx := context.Background()

	e1, err := log.Append(ctx, testHash(1), nil)
	require.NoError(t, err)
	_, err = log.Append(ctx, testHash(2), nil)
	require.NoError(t, err)
	require.NoError(t, log.Commit(ctx, e1))

	storage.mu.Lock()
	tampered := storage.records[2]
	tampered.MerkleState = []byte{0, 0, 0, 0}
	storage.records[2] = tampered
	storage.mu.Unlock()

	rm := NewRecoveryManager(NewLog(storage, audit.NewLogger(testSignerWAL())), audit.NewLogger(testSignerWAL()))
	_, err = rm.Recover(ctx)
	require.Error(t, err)
}

func TestRecoveryManagerNeverCommitsUncommittedEntries(t *testing.T) {
	storage := newMemStorage()
	log := NewLog(storage, audit.NewLogger(testSignerWAL()))
	ctx := context.Background()

	_, err := log.Append(ctx, testHash(1), nil)
	require.NoError(t, err)

	restored := NewLog(storage, audit.NewLogger(testSignerWAL()))
	rm := NewRecoveryManager(restored, audit.NewLogger(testSignerWAL()))
	committed, err := rm.Recover(ctx)
	require.NoError(t, err)
	require.Empty(t, committed)
	require.Len(t, restored.Uncommitted(), 1)
}
