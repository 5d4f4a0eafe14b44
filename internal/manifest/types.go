// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package manifest implements the artifact manifest: a schema-versioned,
// content-addressed description of a captured-scan package. Manifests are
// immutable once constructed — Build computes artifact_id and
// artifact_hash as part of construction, never after.
package manifest

// SchemaVersion is the only value this package's decoder accepts.
const SchemaVersion = 1

// DomainPrefix is prepended to canonical bytes before hashing, for both
// artifact_id and artifact_hash. It must never change without a schema
// version bump.
const DomainPrefix = "aether.artifact.manifest.v1\x00"

// UpAxis is the closed set of coordinate system up-axis values.
type UpAxis string

const (
	UpAxisX    UpAxis = "X"
	UpAxisNegX UpAxis = "-X"
	UpAxisY    UpAxis = "Y"
	UpAxisNegY UpAxis = "-Y"
	UpAxisZ    UpAxis = "Z"
	UpAxisNegZ UpAxis = "-Z"
)

// IsValid reports whether a is one of the six closed up-axis values.
func (a UpAxis) IsValid() bool {
	switch a {
	case UpAxisX, UpAxisNegX, UpAxisY, UpAxisNegY, UpAxisZ, UpAxisNegZ:
		return true
	default:
		return false
	}
}

// CoordinateSystem pins the up-axis and a unit-to-meter scale factor. The
// scale is stored as a fixed-point integer scaled by 1e9 (UnitScaleNano) so
// that canonical encoding never re-derives rounding from a float at encode
// time; UnitScale() recovers the float view for callers that need it.
type CoordinateSystem struct {
	UpAxis        UpAxis
	UnitScaleNano int64
}

// UnitScale returns the coordinate system's unit scale as a float64.
func (c CoordinateSystem) UnitScale() float64 {
	return float64(c.UnitScaleNano) / 1e9
}

// QualityTier is the closed set of LOD quality tiers.
type QualityTier string

const (
	QualityLow    QualityTier = "low"
	QualityMedium QualityTier = "medium"
	QualityHigh   QualityTier = "high"
)

// IsValid reports whether q is one of the three closed quality tiers.
func (q QualityTier) IsValid() bool {
	switch q {
	case QualityLow, QualityMedium, QualityHigh:
		return true
	default:
		return false
	}
}

// LOD describes one level-of-detail entry.
type LOD struct {
	LODID            string
	QualityTier      QualityTier
	ApproxSplatCount int64
	EntryFile        string
}

// ContentType is the closed whitelist of file content types this module
// recognizes in a manifest.
type ContentType string

const (
	ContentTypeAetherPLY  ContentType = "application/x-aether-ply"
	ContentTypeAetherSplat ContentType = "application/x-aether-splat"
	ContentTypeGLTFBinary ContentType = "model/gltf-binary"
	ContentTypePNG        ContentType = "image/png"
	ContentTypeJPEG       ContentType = "image/jpeg"
	ContentTypeMP4        ContentType = "video/mp4"
	ContentTypeJSON       ContentType = "application/json"
)

// IsValid reports whether c is in the closed content-type whitelist.
func (c ContentType) IsValid() bool {
	switch c {
	case ContentTypeAetherPLY, ContentTypeAetherSplat, ContentTypeGLTFBinary,
		ContentTypePNG, ContentTypeJPEG, ContentTypeMP4, ContentTypeJSON:
		return true
	default:
		return false
	}
}

// Role is the closed whitelist of file roles.
type Role string

const (
	RoleLODEntry     Role = "lod_entry"
	RoleThumbnail    Role = "thumbnail"
	RolePreviewVideo Role = "preview_video"
	RoleMetadata     Role = "metadata"
	RoleAuxiliary    Role = "auxiliary"
)

// IsValid reports whether r is in the closed role whitelist.
func (r Role) IsValid() bool {
	switch r {
	case RoleLODEntry, RoleThumbnail, RolePreviewVideo, RoleMetadata, RoleAuxiliary:
		return true
	default:
		return false
	}
}

// FallbackRoleFor returns the role a fallback file must carry for the given
// fallback key ("thumbnail" or "preview_video"), and whether key is a
// recognized fallback kind at all.
func FallbackRoleFor(key string) (Role, bool) {
	switch key {
	case "thumbnail":
		return RoleThumbnail, true
	case "preview_video":
		return RolePreviewVideo, true
	default:
		return "", false
	}
}

// FileDescriptor describes one packaged file.
type FileDescriptor struct {
	Path        string
	SHA256      string
	Bytes       int64
	ContentType ContentType
	Role        Role
}

const (
	minFileBytes = 1
	maxFileBytes = 5_000_000_000
	maxPathBytes = 512
)

// Manifest is the fully validated, immutable artifact manifest.
type Manifest struct {
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
