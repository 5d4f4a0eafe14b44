// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aether3d/capturecore/internal/canon"
)

// wireManifest mirrors Manifest's JSON-facing shape. DisallowUnknownFields
// closes the world at this level and at LOD/FileDescriptor; coordinateSystem
// closes its own world in its UnmarshalJSON below, since it needs custom
// number handling DisallowUnknownFields can't reach.
type wireManifest struct {
	SchemaVersion    int                  `json:"schema_version"`
	ArtifactID       string               `json:"artifact_id"`
	BuildMeta        map[string]string    `json:"build_meta"`
	CoordinateSystem wireCoordinateSystem `json:"coordinate_system"`
	LODs             []wireLOD            `json:"lods"`
	Files            []wireFileDescriptor `json:"files"`
	Fallbacks        map[string]string    `json:"fallbacks,omitempty"`
	PolicyHash       string               `json:"policy_hash"`
	ArtifactHash     string               `json:"artifact_hash"`
}

type wireLOD struct {
	LODID            string `json:"lod_id"`
	QualityTier      string `json:"quality_tier"`
	ApproxSplatCount int64  `json:"approx_splat_count"`
	EntryFile        string `json:"entry_file"`
}

type wireFileDescriptor struct {
	Path        string `json:"path"`
	SHA256      string `json:"sha256"`
	Bytes       int64  `json:"bytes"`
	ContentType string `json:"content_type"`
	Role        string `json:"role"`
}

// wireCoordinateSystem decodes {"up_axis":..., "unit_scale":...} where
// unit_scale is a bare JSON number in the exact decimal shape
// canon.FixedPoint9 produces. A custom UnmarshalJSON is required because
// encoding/json would otherwise decode unit_scale into a float64, losing
// the fixed-point representation's exactness on the way in.
type wireCoordinateSystem struct {
	UpAxis        string
	UnitScaleNano int64
}

func (w *wireCoordinateSystem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var extra []string
	for k := range raw {
		if k != "up_axis" && k != "unit_scale" {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return &Error{Kind: KindUnknownFields, Field: "coordinate_system", Keys: extra}
	}

	upRaw, ok := raw["up_axis"]
	if !ok {
		return &Error{Kind: KindInvalidUpAxis, Field: "coordinate_system.up_axis"}
	}
	usRaw, ok := raw["unit_scale"]
	if !ok {
		return &Error{Kind: KindInvalidUnitScale, Field: "coordinate_system.unit_scale"}
	}

	var upAxis string
	if err := json.Unmarshal(upRaw, &upAxis); err != nil {
		return &Error{Kind: KindInvalidUpAxis, Field: "coordinate_system.up_axis"}
	}

	scaleText := strings.TrimSpace(string(usRaw))
	nano, err := canon.ParseFixedPoint9(scaleText)
	if err != nil {
		return &Error{Kind: KindInvalidUnitScale, Field: "coordinate_system.unit_scale", Value: scaleText}
	}

	w.UpAxis = upAxis
	w.UnitScaleNano = nano
	return nil
}

// Decode parses a canonical manifest document and re-verifies every
// invariant Build would have enforced, including self-consistency of
// artifact_id and artifact_hash against the document's own canonical
// bytes. A decoded Manifest carries exactly the same guarantees as one
// returned by Build.
func Decode(data []byte) (Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var wm wireManifest
	if err := dec.Decode(&wm); err != nil {
		if uf, ok := asUnknownFieldErr(err); ok {
			return Manifest{}, uf
		}
		if me, ok := err.(*Error); ok {
			return Manifest{}, me
		}
		return Manifest{}, fmt.Errorf("manifest: decode: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Manifest{}, fmt.Errorf("manifest: trailing content after document")
	}

	if wm.SchemaVersion != SchemaVersion {
		return Manifest{}, fieldErr(KindUnsupportedSchemaVersion, "schema_version", fmt.Sprintf("%d", wm.SchemaVersion))
	}

	lods := make([]LOD, len(wm.LODs))
	for i, l := range wm.LODs {
		lods[i] = LOD{
			LODID:            l.LODID,
			QualityTier:      QualityTier(l.QualityTier),
			ApproxSplatCount: l.ApproxSplatCount,
			EntryFile:        l.EntryFile,
		}
	}

	files := make([]FileDescriptor, len(wm.Files))
	for i, f := range wm.Files {
		files[i] = FileDescriptor{
			Path:        f.Path,
			SHA256:      f.SHA256,
			Bytes:       f.Bytes,
			ContentType: ContentType(f.ContentType),
			Role:        Role(f.Role),
		}
	}

	cs := CoordinateSystem{UpAxis: UpAxis(wm.CoordinateSystem.UpAxis), UnitScaleNano: wm.CoordinateSystem.UnitScaleNano}

	if err := validateAll(wm.BuildMeta, cs, lods, files, wm.Fallbacks, wm.PolicyHash); err != nil {
		return Manifest{}, err
	}

	m := Manifest{
		SchemaVersion:    wm.SchemaVersion,
		ArtifactID:       wm.ArtifactID,
		BuildMeta:        wm.BuildMeta,
		CoordinateSystem: cs,
		LODs:             lods,
		Files:            files,
		Fallbacks:        wm.Fallbacks,
		PolicyHash:       wm.PolicyHash,
		ArtifactHash:     wm.ArtifactHash,
	}

	if err := verifyHashes(m); err != nil {
		return Manifest{}, err
	}

	return m, nil
}

// verifyHashes recomputes artifact_id and artifact_hash from m's own
// fields and confirms they match what was stored, catching tampered or
// hand-edited manifests that would otherwise pass field-level validation.
func verifyHashes(m Manifest) error {
	draft := draftManifest{
		SchemaVersion:    m.SchemaVersion,
		BuildMeta:        m.BuildMeta,
		CoordinateSystem: m.CoordinateSystem,
		LODs:             m.LODs,
		Files:            m.Files,
		Fallbacks:        m.Fallbacks,
		PolicyHash:       m.PolicyHash,
	}

	tmpBytes, err := encodeCanonical(draft, encodeOptions{})
	if err != nil {
		return err
	}
	idSum := canon.SHA256(DomainPrefix, tmpBytes)
	wantID := canon.LowerHex(idSum[:])[:32]
	if wantID != m.ArtifactID {
		return fieldErr(KindHashMismatch, "artifact_id", m.ArtifactID)
	}

	draft.ArtifactID = m.ArtifactID
	canonicalBytes, err := encodeCanonical(draft, encodeOptions{includeArtifactID: true})
	if err != nil {
		return err
	}
	hashSum := canon.SHA256(DomainPrefix, canonicalBytes)
	wantHash := canon.LowerHex(hashSum[:])
	if wantHash != m.ArtifactHash {
		return fieldErr(KindHashMismatch, "artifact_hash", m.ArtifactHash)
	}
	return nil
}

// asUnknownFieldErr recognizes encoding/json's unknown-field error text
// (it has no typed sentinel) and converts it into this package's closed
// Error shape, matching the string-matching idiom already used for the
// YAML decoder in internal/config.
func asUnknownFieldErr(err error) (*Error, bool) {
	msg := err.Error()
	if !strings.Contains(msg, "unknown field") {
		return nil, false
	}
	start := strings.Index(msg, `"`)
	end := strings.LastIndex(msg, `"`)
	var key string
	if start >= 0 && end > start {
		key = msg[start+1 : end]
	}
	return &Error{Kind: KindUnknownFields, Keys: []string{key}}, true
}
