// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manifest

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	minUnitScale = 0.001
	maxUnitScale = 1000.0
)

var pathAllowedChars = func() [256]bool {
	var allowed [256]bool
	for c := 'A'; c <= 'Z'; c++ {
		allowed[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		allowed[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		allowed[c] = true
	}
	allowed['.'] = true
	allowed['_'] = true
	allowed['/'] = true
	allowed['-'] = true
	return allowed
}()

// ValidatePath exposes the path hygiene check for other packages (the
// package validator applies the identical rule to on-disk paths).
func ValidatePath(path string) error {
	return validatePath(path)
}

// validatePath enforces §3/§8's path hygiene invariant: ASCII
// [A-Za-z0-9._/-]+, <= 512 bytes, no "..", no "//", no leading/trailing
// "/", no backslash (excluded by the allowed-character set itself).
func validatePath(path string) error {
	if path == "" || len(path) > maxPathBytes {
		return fieldErr(KindInvalidPath, "path", path)
	}
	for i := 0; i < len(path); i++ {
		if !pathAllowedChars[path[i]] {
			return fieldErr(KindInvalidPath, "path", path)
		}
	}
	if strings.Contains(path, "..") {
		return fieldErr(KindInvalidPath, "path", path)
	}
	if strings.Contains(path, "//") {
		return fieldErr(KindInvalidPath, "path", path)
	}
	if strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return fieldErr(KindInvalidPath, "path", path)
	}
	return nil
}

func validateBuildMetaString(field, s string) error {
	if strings.IndexByte(s, 0) != -1 {
		return fieldErr(KindNullByteInString, field, s)
	}
	if !norm.NFC.IsNormalString(s) {
		return fieldErr(KindNotNFC, field, s)
	}
	return nil
}

func validateBuildMeta(m map[string]string) error {
	for k, v := range m {
		if err := validateBuildMetaString("build_meta.key", k); err != nil {
			return err
		}
		if err := validateBuildMetaString("build_meta.value", v); err != nil {
			return err
		}
	}
	return nil
}

func validateCoordinateSystem(cs CoordinateSystem) error {
	if !cs.UpAxis.IsValid() {
		return fieldErr(KindInvalidUpAxis, "coordinate_system.up_axis", string(cs.UpAxis))
	}
	scale := cs.UnitScale()
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < minUnitScale || scale > maxUnitScale {
		return fieldErr(KindInvalidUnitScale, "coordinate_system.unit_scale", fmt.Sprintf("%v", scale))
	}
	return nil
}

func validateHex(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

func validateLODs(lods []LOD, files []FileDescriptor) error {
	if len(lods) == 0 {
		return fieldErr(KindEmptyLODs, "lods", "")
	}
	fileSet := make(map[string]struct{}, len(files))
	for _, f := range files {
		fileSet[f.Path] = struct{}{}
	}
	for _, l := range lods {
		// lod_id is not itself a package path, but reuses the same byte
		// hygiene check since no narrower rule applies, and it doubles
		// as a canonical sort key so malformed ids cannot pass silently.
		if err := validatePath(l.LODID); err != nil {
			return fieldErr(KindInvalidPath, "lod.lod_id", l.LODID)
		}
		if !l.QualityTier.IsValid() {
			return fieldErr(KindInvalidRole, "lod.quality_tier", string(l.QualityTier))
		}
		if l.ApproxSplatCount <= 0 {
			return fieldErr(KindInvalidBytes, "lod.approx_splat_count", "")
		}
		if err := validatePath(l.EntryFile); err != nil {
			return err
		}
		if _, ok := fileSet[l.EntryFile]; !ok {
			return fieldErr(KindMissingLODEntryFile, "lod.entry_file", l.EntryFile)
		}
	}
	return nil
}

func validateFiles(files []FileDescriptor) error {
	if len(files) == 0 {
		return fieldErr(KindEmptyFiles, "files", "")
	}
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if err := validatePath(f.Path); err != nil {
			return err
		}
		lower := strings.ToLower(f.Path)
		if _, dup := seen[lower]; dup {
			return fieldErr(KindDuplicatePath, "file.path", f.Path)
		}
		seen[lower] = struct{}{}

		if !validateHex(f.SHA256, 64) {
			return fieldErr(KindInvalidSHA256, "file.sha256", f.SHA256)
		}
		if f.Bytes < minFileBytes || f.Bytes > maxFileBytes {
			return fieldErr(KindInvalidBytes, "file.bytes", "")
		}
		if !f.ContentType.IsValid() {
			return fieldErr(KindInvalidContentType, "file.content_type", string(f.ContentType))
		}
		if !f.Role.IsValid() {
			return fieldErr(KindInvalidRole, "file.role", string(f.Role))
		}
	}
	return nil
}

func validateFallbacks(fallbacks map[string]string, files []FileDescriptor) error {
	if len(fallbacks) == 0 {
		return nil
	}
	byPath := make(map[string]Role, len(files))
	for _, f := range files {
		byPath[f.Path] = f.Role
	}
	for key, path := range fallbacks {
		wantRole, known := FallbackRoleFor(key)
		if !known {
			return fieldErr(KindInvalidRole, "fallbacks.key", key)
		}
		if err := validatePath(path); err != nil {
			return err
		}
		role, exists := byPath[path]
		if !exists {
			return fieldErr(KindMissingFallbackFile, "fallbacks."+key, path)
		}
		if role != wantRole {
			return fieldErr(KindFallbackRoleMismatch, "fallbacks."+key, path)
		}
	}
	return nil
}

func validatePolicyHash(h string) error {
	if !validateHex(h, 64) {
		return fieldErr(KindInvalidPolicyHash, "policy_hash", h)
	}
	return nil
}

// validateAll re-checks every invariant in §3. Both Build and Decode route
// through this so a decoded manifest is held to exactly the same bar as a
// freshly constructed one.
func validateAll(buildMeta map[string]string, cs CoordinateSystem, lods []LOD, files []FileDescriptor, fallbacks map[string]string, policyHash string) error {
	if err := validateBuildMeta(buildMeta); err != nil {
		return err
	}
	if err := validateCoordinateSystem(cs); err != nil {
		return err
	}
	if err := validateFiles(files); err != nil {
		return err
	}
	if err := validateLODs(lods, files); err != nil {
		return err
	}
	if err := validateFallbacks(fallbacks, files); err != nil {
		return err
	}
	return validatePolicyHash(policyHash)
}
