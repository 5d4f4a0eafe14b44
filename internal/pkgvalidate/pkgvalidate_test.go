// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package pkgvalidate

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aether3d/capturecore/internal/collab"
	"github.com/aether3d/capturecore/internal/manifest"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func buildTestPackage(t *testing.T) (string, manifest.Manifest) {
	t.Helper()
	root := t.TempDir()
	content := []byte("scan-bytes")
	writeFile(t, filepath.Join(root, "artifacts", "lod0", "scan.ply"), content)

	m, err := manifest.Build(
		nil,
		manifest.CoordinateSystem{UpAxis: manifest.UpAxisY, UnitScaleNano: 1_000_000_000},
		[]manifest.LOD{{LODID: "lod0", QualityTier: manifest.QualityHigh, ApproxSplatCount: 100, EntryFile: "artifacts/lod0/scan.ply"}},
		[]manifest.FileDescriptor{{Path: "artifacts/lod0/scan.ply", SHA256: sha256Hex(content), Bytes: int64(len(content)), ContentType: manifest.ContentTypeAetherPLY, Role: manifest.RoleLODEntry}},
		nil,
		strings.Repeat("c", 64),
	)
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "manifest.json"), []byte("{}"))
	return root, m
}

func TestValidateAcceptsWellFormedPackage(t *testing.T) {
	root, m := buildTestPackage(t)
	err := Validate(root, m, collab.SHA256Hasher{})
	require.NoError(t, err)
}

func TestValidateRejectsHiddenFile(t *testing.T) {
	root, m := buildTestPackage(t)
	writeFile(t, filepath.Join(root, "artifacts", ".DS_Store"), []byte("x"))

	err := Validate(root, m, collab.SHA256Hasher{})
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, KindHiddenFileFound, pe.Kind)
}

func TestValidateRejectsUnreferencedFile(t *testing.T) {
	root, m := buildTestPackage(t)
	writeFile(t, filepath.Join(root, "artifacts", "stray.bin"), []byte("stray"))

	err := Validate(root, m, collab.SHA256Hasher{})
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, KindUnreferencedFile, pe.Kind)
}

func TestValidateRejectsSymlink(t *testing.T) {
	root, m := buildTestPackage(t)
	target := filepath.Join(root, "artifacts", "lod0", "scan.ply")
	link := filepath.Join(root, "artifacts", "lod0", "link.ply")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	err := Validate(root, m, collab.SHA256Hasher{})
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, KindSymlinkNotAllowed, pe.Kind)
}

func TestValidateRejectsSizeMismatch(t *testing.T) {
	root, m := buildTestPackage(t)
	writeFile(t, filepath.Join(root, "artifacts", "lod0", "scan.ply"), []byte("different-length-content"))

	err := Validate(root, m, collab.SHA256Hasher{})
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.True(t, pe.Kind == KindSizeMismatch || pe.Kind == KindHashMismatch)
}

func TestValidateRejectsMissingManifestJSON(t *testing.T) {
	root, m := buildTestPackage(t)
	require.NoError(t, os.Remove(filepath.Join(root, "manifest.json")))

	err := Validate(root, m, collab.SHA256Hasher{})
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, KindMissingManifestFile, pe.Kind)
}

func TestValidateRejectsUnexpectedTopLevelEntry(t *testing.T) {
	root, m := buildTestPackage(t)
	writeFile(t, filepath.Join(root, "readme.txt"), []byte("hi"))

	err := Validate(root, m, collab.SHA256Hasher{})
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, KindUnexpectedTopLevelEntry, pe.Kind)
}
