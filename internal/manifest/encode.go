// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manifest

import (
	"sort"

	"github.com/aether3d/capturecore/internal/canon"
)

// encodeOptions controls which of the two optional fields appear in the
// canonical byte sequence, per §4.1's two hashing passes.
type encodeOptions struct {
	includeArtifactID   bool
	includeArtifactHash bool
}

// encodeCanonical produces the exact byte sequence for m according to
// §4.1: fixed field order, ascending-key maps, lexicographically sorted
// arrays, no whitespace, hand-rolled number/string formatting.
func encodeCanonical(m draftManifest, opt encodeOptions) ([]byte, error) {
	b := canon.NewBuilder()
	b.RawByte('{')

	b.Raw(`"schema_version":`)
	b.Int64(int64(m.SchemaVersion))

	if opt.includeArtifactID {
		b.Raw(`,"artifact_id":`)
		if err := b.String(m.ArtifactID); err != nil {
			return nil, err
		}
	}

	b.Raw(`,"build_meta":{`)
	keys := canon.SortedKeys(m.BuildMeta)
	for i, k := range keys {
		if i > 0 {
			b.RawByte(',')
		}
		if err := b.String(k); err != nil {
			return nil, err
		}
		b.RawByte(':')
		if err := b.String(m.BuildMeta[k]); err != nil {
			return nil, err
		}
	}
	b.RawByte('}')

	b.Raw(`,"coordinate_system":{"up_axis":`)
	if err := b.String(string(m.CoordinateSystem.UpAxis)); err != nil {
		return nil, err
	}
	b.Raw(`,"unit_scale":`)
	b.Raw(canon.FixedPoint9(m.CoordinateSystem.UnitScaleNano))
	b.RawByte('}')

	b.Raw(`,"lods":[`)
	sortedLODs := append([]LOD(nil), m.LODs...)
	sort.Slice(sortedLODs, func(i, j int) bool { return sortedLODs[i].LODID < sortedLODs[j].LODID })
	for i, l := range sortedLODs {
		if i > 0 {
			b.RawByte(',')
		}
		b.RawByte('{')
		b.Raw(`"lod_id":`)
		if err := b.String(l.LODID); err != nil {
			return nil, err
		}
		b.Raw(`,"quality_tier":`)
		if err := b.String(string(l.QualityTier)); err != nil {
			return nil, err
		}
		b.Raw(`,"approx_splat_count":`)
		b.Int64(l.ApproxSplatCount)
		b.Raw(`,"entry_file":`)
		if err := b.String(l.EntryFile); err != nil {
			return nil, err
		}
		b.RawByte('}')
	}
	b.RawByte(']')

	b.Raw(`,"files":[`)
	sortedFiles := append([]FileDescriptor(nil), m.Files...)
	sort.Slice(sortedFiles, func(i, j int) bool { return sortedFiles[i].Path < sortedFiles[j].Path })
	for i, f := range sortedFiles {
		if i > 0 {
			b.RawByte(',')
		}
		b.RawByte('{')
		b.Raw(`"path":`)
		if err := b.String(f.Path); err != nil {
			return nil, err
		}
		b.Raw(`,"sha256":`)
		if err := b.String(f.SHA256); err != nil {
			return nil, err
		}
		b.Raw(`,"bytes":`)
		b.Int64(f.Bytes)
		b.Raw(`,"content_type":`)
		if err := b.String(string(f.ContentType)); err != nil {
			return nil, err
		}
		b.Raw(`,"role":`)
		if err := b.String(string(f.Role)); err != nil {
			return nil, err
		}
		b.RawByte('}')
	}
	b.RawByte(']')

	if len(m.Fallbacks) > 0 {
		b.Raw(`,"fallbacks":{`)
		fkeys := canon.SortedKeys(m.Fallbacks)
		for i, k := range fkeys {
			if i > 0 {
				b.RawByte(',')
			}
			if err := b.String(k); err != nil {
				return nil, err
			}
			b.RawByte(':')
			if err := b.String(m.Fallbacks[k]); err != nil {
				return nil, err
			}
		}
		b.RawByte('}')
	}

	b.Raw(`,"policy_hash":`)
	if err := b.String(m.PolicyHash); err != nil {
		return nil, err
	}

	if opt.includeArtifactHash {
		b.Raw(`,"artifact_hash":`)
		if err := b.String(m.ArtifactHash); err != nil {
			return nil, err
		}
	}

	b.RawByte('}')
	return b.Bytes(), nil
}

// draftManifest is the pre-hash working value used by Build: identical
// shape to Manifest, but artifact_id/artifact_hash are filled in as the
// build proceeds rather than all at once.
type draftManifest struct {
	SchemaVersion    int
	ArtifactID       string
	BuildMeta        map[string]string
	CoordinateSystem CoordinateSystem
	LODs             []LOD
	Files            []FileDescriptor
	Fallbacks        map[string]string
	PolicyHash       string
	ArtifactHash     string
}
