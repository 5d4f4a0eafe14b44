// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manifest

import "github.com/aether3d/capturecore/internal/canon"

// Build constructs a Manifest from its inputs, validating every invariant
// and computing artifact_id and artifact_hash in the two-pass sequence
// required for determinism:
//
//  1. validate all fields
//  2. encode canonical bytes without artifact_id or artifact_hash
//  3. artifact_id = lowercase_hex(SHA256(DomainPrefix || bytes))[:32]
//  4. encode canonical bytes with artifact_id, still without artifact_hash
//  5. artifact_hash = lowercase_hex(SHA256(DomainPrefix || bytes))
//
// The returned Manifest is immutable: neither field is ever recomputed
// after Build returns.
func Build(buildMeta map[string]string, cs CoordinateSystem, lods []LOD, files []FileDescriptor, fallbacks map[string]string, policyHash string) (Manifest, error) {
	if err := validateAll(buildMeta, cs, lods, files, fallbacks, policyHash); err != nil {
		return Manifest{}, err
	}

	draft := draftManifest{
		SchemaVersion:    SchemaVersion,
		BuildMeta:        buildMeta,
		CoordinateSystem: cs,
		LODs:             lods,
		Files:            files,
		Fallbacks:        fallbacks,
		PolicyHash:       policyHash,
	}

	tmpBytes, err := encodeCanonical(draft, encodeOptions{})
	if err != nil {
		return Manifest{}, err
	}
	idSum := canon.SHA256(DomainPrefix, tmpBytes)
	draft.ArtifactID = canon.LowerHex(idSum[:])[:32]

	canonicalBytes, err := encodeCanonical(draft, encodeOptions{includeArtifactID: true})
	if err != nil {
		return Manifest{}, err
	}
	hashSum := canon.SHA256(DomainPrefix, canonicalBytes)
	draft.ArtifactHash = canon.LowerHex(hashSum[:])

	return Manifest{
		SchemaVersion:    draft.SchemaVersion,
		ArtifactID:       draft.ArtifactID,
		BuildMeta:        draft.BuildMeta,
		CoordinateSystem: draft.CoordinateSystem,
		LODs:             draft.LODs,
		Files:            draft.Files,
		Fallbacks:        draft.Fallbacks,
		PolicyHash:       draft.PolicyHash,
		ArtifactHash:     draft.ArtifactHash,
	}, nil
}

// CanonicalBytes returns the exact byte sequence Build would have hashed
// to produce m.ArtifactHash, for callers that need to persist or transmit
// the manifest's canonical form (e.g. writing manifest.json into a
// package). It does not recompute or re-derive anything from m.
func CanonicalBytes(m Manifest) ([]byte, error) {
	return encodeCanonical(draftManifest{
		SchemaVersion:    m.SchemaVersion,
		ArtifactID:       m.ArtifactID,
		BuildMeta:        m.BuildMeta,
		CoordinateSystem: m.CoordinateSystem,
		LODs:             m.LODs,
		Files:            m.Files,
		Fallbacks:        m.Fallbacks,
		PolicyHash:       m.PolicyHash,
		ArtifactHash:     m.ArtifactHash,
	}, encodeOptions{includeArtifactID: true, includeArtifactHash: true})
}
