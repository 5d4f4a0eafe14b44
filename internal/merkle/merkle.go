// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package merkle implements an append-only Merkle tree over WAL entry
// hashes. Each append admits one more leaf; Root recomputes the tree
// top-down from the current leaf set, and State/Restore round-trip the
// leaf set so a WAL record's merkle_state column can rebuild the exact
// tree that produced it.
//
// Hashing uses SHA-256 rather than BLAKE3 to stay consistent with the
// rest of the capture core, which hashes everything (manifests, whitebox
// packages, region IDs) with SHA-256; introducing a second hash
// primitive for only this component would buy nothing.
package merkle

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
)

// Hash is a SHA-256 digest.
type Hash = [32]byte

var (
	leafDomain = []byte("A3D_MERKLE_LEAF_V1\x00")
	nodeDomain = []byte("A3D_MERKLE_NODE_V1\x00")
)

// LeafHash computes the domain-separated hash of one leaf's content.
func LeafHash(data []byte) Hash {
	h := sha256.New()
	h.Write(leafDomain)
	h.Write(data)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func nodeHash(left, right Hash) Hash {
	h := sha256.New()
	h.Write(nodeDomain)
	h.Write(left[:])
	h.Write(right[:])
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Tree is an append-only Merkle tree. The zero value is an empty tree.
type Tree struct {
	leaves []Hash
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{}
}

// Insert appends a new leaf computed from data's domain-separated hash
// and returns that leaf hash.
func (t *Tree) Insert(data []byte) Hash {
	h := LeafHash(data)
	t.leaves = append(t.leaves, h)
	return h
}

// InsertHash appends a precomputed leaf hash directly, for callers that
// already hold a leaf digest (e.g. a WAL entry's own content hash) and
// don't want it re-hashed under the leaf domain a second time.
func (t *Tree) InsertHash(h Hash) {
	t.leaves = append(t.leaves, h)
}

// Len returns the number of leaves inserted so far.
func (t *Tree) Len() int {
	return len(t.leaves)
}

// Root computes the current Merkle root. An empty tree's root is the
// all-zero hash; a single-leaf tree's root is that leaf.
func (t *Tree) Root() Hash {
	if len(t.leaves) == 0 {
		return Hash{}
	}
	level := append([]Hash(nil), t.leaves...)
	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, nodeHash(level[i], level[i+1]))
			} else {
				// Odd tail: promote unpaired leaf unchanged, per the
				// common odd-node-carry convention (no self-pairing,
				// which would make an attacker-chosen duplicate leaf
				// collide with a carried node).
				next = append(next, level[i])
			}
		}
		level = next
	}
	return level[0]
}

// State serializes the leaf set as a length-prefixed byte sequence
// suitable for persistence as a WAL record's merkle_state field.
func (t *Tree) State() []byte {
	buf := make([]byte, 4, 4+len(t.leaves)*32)
	binary.BigEndian.PutUint32(buf, uint32(len(t.leaves)))
	for _, h := range t.leaves {
		buf = append(buf, h[:]...)
	}
	return buf
}

// ErrMalformedState is returned by Restore when data isn't a value State
// previously produced.
var ErrMalformedState = errors.New("merkle: malformed state")

// Restore rebuilds a Tree from bytes previously produced by State.
func Restore(data []byte) (*Tree, error) {
	if len(data) < 4 {
		return nil, ErrMalformedState
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]
	if uint64(len(data)) != uint64(count)*32 {
		return nil, ErrMalformedState
	}
	leaves := make([]Hash, count)
	for i := range leaves {
		copy(leaves[i][:], data[i*32:(i+1)*32])
	}
	return &Tree{leaves: leaves}, nil
}
