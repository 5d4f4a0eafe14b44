// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package filestore is the file-backed wal.Storage implementation: an
// append-only record stream where an update is a fresh append of the
// same entry_id and a reader keeps only the last occurrence of each ID.
package filestore

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/aether3d/capturecore/internal/wal"
)

// FileStore is a file-backed wal.Storage. It owns its file handle
// exclusively; nothing in this package prevents two FileStores from
// opening the same path, so callers must enforce single-writer access
// themselves (e.g. an exclusive-create flag or an external lock file).
type FileStore struct {
	mu sync.Mutex
	f  *os.File
}

// Open opens (creating if absent) the WAL file at path for read-write
// access.
func Open(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("filestore: open: %w", err)
	}
	return &FileStore{f: f}, nil
}

// record layout: entry_id:u64 BE | committed:u8 | timestamp_ns:u64 BE |
// hash_len:u32 BE | hash | signed_len:u32 BE | signed | merkle_len:u32
// BE | merkle.
func encodeRecord(e wal.Entry) []byte {
	size := 8 + 1 + 8 + 4 + len(e.Hash) + 4 + len(e.SignedEntryBytes) + 4 + len(e.MerkleState)
	buf := make([]byte, 0, size)

	var tmp8 [8]byte
	binary.BigEndian.PutUint64(tmp8[:], e.EntryID)
	buf = append(buf, tmp8[:]...)

	var committed byte
	if e.Committed {
		committed = 1
	}
	buf = append(buf, committed)

	binary.BigEndian.PutUint64(tmp8[:], uint64(e.TimestampNS))
	buf = append(buf, tmp8[:]...)

	buf = appendLenPrefixed(buf, e.Hash)
	buf = appendLenPrefixed(buf, e.SignedEntryBytes)
	buf = appendLenPrefixed(buf, e.MerkleState)

	return buf
}

func appendLenPrefixed(buf, payload []byte) []byte {
	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], uint32(len(payload)))
	buf = append(buf, tmp4[:]...)
	return append(buf, payload...)
}

// decodeRecord reads one record from r. Every payload's length is taken
// directly from its own length-prefix field, never from a recomputed
// byte offset — the obvious offset arithmetic for this layout is off
// by one, and deriving lengths any other way would reproduce that bug.
func decodeRecord(r io.Reader) (wal.Entry, error) {
	var e wal.Entry

	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return wal.Entry{}, err // clean io.EOF at a record boundary
	}
	e.EntryID = binary.BigEndian.Uint64(hdr[:])

	var committed [1]byte
	if _, err := io.ReadFull(r, committed[:]); err != nil {
		return wal.Entry{}, fmt.Errorf("filestore: truncated committed flag: %w", err)
	}
	e.Committed = committed[0] != 0

	var ts [8]byte
	if _, err := io.ReadFull(r, ts[:]); err != nil {
		return wal.Entry{}, fmt.Errorf("filestore: truncated timestamp: %w", err)
	}
	e.TimestampNS = int64(binary.BigEndian.Uint64(ts[:]))

	hash, err := readLenPrefixed(r)
	if err != nil {
		return wal.Entry{}, err
	}
	e.Hash = hash

	signed, err := readLenPrefixed(r)
	if err != nil {
		return wal.Entry{}, err
	}
	e.SignedEntryBytes = signed

	merkleState, err := readLenPrefixed(r)
	if err != nil {
		return wal.Entry{}, err
	}
	e.MerkleState = merkleState

	return e, nil
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("filestore: truncated length prefix: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("filestore: truncated payload: %w", err)
	}
	return buf, nil
}

// Persist appends e's encoded record to the file.
func (fs *FileStore) Persist(ctx context.Context, e wal.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("filestore: seek end: %w", err)
	}
	if _, err := fs.f.Write(encodeRecord(e)); err != nil {
		return fmt.Errorf("filestore: write: %w", err)
	}
	return nil
}

// Fsync flushes the file to stable storage via the platform's file-sync
// primitive.
func (fs *FileStore) Fsync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.f.Sync()
}

// ReadAll scans the file from the beginning, keeping only the last
// occurrence of each entry_id.
func (fs *FileStore) ReadAll(ctx context.Context) ([]wal.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("filestore: seek start: %w", err)
	}

	byID := make(map[uint64]wal.Entry)
	r := bufio.NewReader(fs.f)
	for {
		e, err := decodeRecord(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("filestore: read all: %w", err)
		}
		byID[e.EntryID] = e
	}

	out := make([]wal.Entry, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	return out, nil
}

// Close closes the underlying file handle.
func (fs *FileStore) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.f.Close()
}
