// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package wal

import (
	"context"
	"fmt"
	"sort"

	"github.com/aether3d/capturecore/internal/audit"
	"github.com/aether3d/capturecore/internal/merkle"
	"github.com/aether3d/capturecore/internal/metrics"
)

// RecoveryFailed is the typed, fail-closed error returned when recovery's
// cross-verification finds any inconsistency. Reason names the check
// that failed; no partial entry list is ever returned alongside it.
type RecoveryFailed struct {
	Reason string
}

func (e *RecoveryFailed) Error() string {
	return fmt.Sprintf("wal: recovery failed: %s", e.Reason)
}

// RecoveryManager wraps a Log's raw Recover with the fail-closed
// cross-verification the write-ahead log requires: every committed
// entry's hash must be exactly 32 bytes, and replaying all persisted
// entries (committed and uncommitted, in entry_id order) through a fresh
// Merkle tree must reproduce the root embedded in the newest persisted
// record's merkle_state. Either check failing aborts recovery and signs
// an audit event naming the reason; it never commits an uncommitted
// entry on the caller's behalf.
type RecoveryManager struct {
	log         *Log
	auditLogger *audit.Logger
}

// NewRecoveryManager builds a RecoveryManager over log, signing recovery
// outcomes with auditLogger.
func NewRecoveryManager(log *Log, auditLogger *audit.Logger) *RecoveryManager {
	return &RecoveryManager{log: log, auditLogger: auditLogger}
}

// Recover performs Log.Recover, then cross-verifies the result. On
// success it returns the committed entries (entry_id order); the Log's
// uncommitted set and next_entry_id are left as Recover set them.
func (r *RecoveryManager) Recover(ctx context.Context) ([]Entry, error) {
	committed, err := r.log.Recover(ctx)
	if err != nil {
		return nil, r.fail(fmt.Sprintf("storage read failed: %v", err))
	}

	for _, e := range committed {
		if len(e.Hash) != 32 {
			return nil, r.fail(fmt.Sprintf("committed entry %d has corrupt hash length %d", e.EntryID, len(e.Hash)))
		}
	}

	uncommitted := r.log.Uncommitted()

	if err := r.verifyMerkleConsistency(committed, uncommitted); err != nil {
		return nil, r.fail(err.Error())
	}

	for _, e := range uncommitted {
		if r.auditLogger != nil {
			r.auditLogger.Log(audit.Event{
				Type:     audit.EventRecover,
				Actor:    "system",
				Action:   "replayed uncommitted WAL entry",
				Resource: entryResource(e.EntryID),
				Result:   "replayed",
			})
		}
	}

	if r.auditLogger != nil {
		r.auditLogger.Recover("system", len(committed))
	}
	metrics.RecordWALRecovery("success")

	return committed, nil
}

// verifyMerkleConsistency rebuilds a Merkle tree from scratch by
// replaying every persisted entry in entry_id order and checks that its
// root matches the root recorded in the newest entry's merkle_state,
// catching tampering before any uncommitted tail is trusted.
func (r *RecoveryManager) verifyMerkleConsistency(committed, uncommitted []Entry) error {
	all := make([]Entry, 0, len(committed)+len(uncommitted))
	all = append(all, committed...)
	all = append(all, uncommitted...)
	if len(all) == 0 {
		return nil
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EntryID < all[j].EntryID })

	fresh := merkle.New()
	var wantState []byte
	for _, e := range all {
		var h merkle.Hash
		copy(h[:], e.Hash)
		fresh.InsertHash(h)
		wantState = e.MerkleState
	}

	if len(wantState) == 0 {
		return nil
	}
	wantTree, err := merkle.Restore(wantState)
	if err != nil {
		return fmt.Errorf("persisted merkle_state is unparseable: %w", err)
	}
	if fresh.Root() != wantTree.Root() {
		return fmt.Errorf("replayed Merkle root does not match persisted merkle_state")
	}
	return nil
}

func (r *RecoveryManager) fail(reason string) error {
	if r.auditLogger != nil {
		r.auditLogger.RecoveryFailed("system", reason)
	}
	metrics.RecordWALRecovery("failed")
	return &RecoveryFailed{Reason: reason}
}

func entryResource(entryID uint64) string {
	if entryID == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	n := entryID
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
