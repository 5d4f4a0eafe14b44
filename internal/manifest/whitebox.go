// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manifest

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// WhiteboxFile is one file entry in the whitebox package variant.
type WhiteboxFile struct {
	Path   string
	SHA256 string
	Bytes  int64
}

// Whitebox is the secondary, lighter-weight manifest variant used for
// in-tree artifact packages where the full manifest's coordinate/LOD
// bookkeeping isn't needed: just a hash-chained file list bound to a
// policy hash.
type Whitebox struct {
	SchemaVersion int
	ArtifactID    string
	PolicyHash    string
	ArtifactHash  string
	Files         []WhiteboxFile
}

const whiteboxDomainPrefix = "A3D_ARTIFACT_V1\n"

// BuildWhitebox computes a Whitebox's artifact_hash and artifact_id from
// policyHash and files, hashing path-sorted entries so that two calls
// with the same file set in different insertion orders agree.
func BuildWhitebox(policyHash string, files []WhiteboxFile) (Whitebox, error) {
	if err := validatePolicyHash(policyHash); err != nil {
		return Whitebox{}, err
	}
	if len(files) == 0 {
		return Whitebox{}, fieldErr(KindEmptyFiles, "files", "")
	}

	sorted := append([]WhiteboxFile(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, f := range sorted {
		if err := validatePath(f.Path); err != nil {
			return Whitebox{}, err
		}
		if !validateHex(f.SHA256, 64) {
			return Whitebox{}, fieldErr(KindInvalidSHA256, "file.sha256", f.SHA256)
		}
	}

	h := sha256.New()
	h.Write([]byte(whiteboxDomainPrefix))
	h.Write([]byte(policyHash))
	h.Write([]byte{'\n'})
	h.Write([]byte(fmt.Sprintf("%d", SchemaVersion)))
	h.Write([]byte{'\n'})
	h.Write([]byte(fmt.Sprintf("%d", len(sorted))))
	h.Write([]byte{'\n'})
	for _, f := range sorted {
		h.Write([]byte(f.Path))
		h.Write([]byte{'\n'})
		h.Write([]byte(f.SHA256))
		h.Write([]byte{'\n'})
	}

	sum := h.Sum(nil)
	artifactHash := lowerHexBytes(sum)

	return Whitebox{
		SchemaVersion: SchemaVersion,
		ArtifactID:    artifactHash[:8],
		PolicyHash:    policyHash,
		ArtifactHash:  artifactHash,
		Files:         sorted,
	}, nil
}

func lowerHexBytes(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0x0F]
	}
	return string(out)
}
