// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package pkgvalidate verifies that an on-disk artifact package matches
// its manifest exactly: every manifest file exists with the right size
// and hash, every real file on disk is referenced, and the directory
// contains nothing but manifest.json and artifacts/. Traversal safety
// uses the same secure-join discipline applied to any root-relative
// user path elsewhere in this module.
package pkgvalidate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aether3d/capturecore/internal/collab"
	"github.com/aether3d/capturecore/internal/manifest"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentFileChecks bounds how many files are hashed in parallel
// during Validate, so a package with thousands of files doesn't open
// thousands of file descriptors at once.
const maxConcurrentFileChecks = 8

// ErrorKind enumerates package-validation failure kinds.
type ErrorKind string

const (
	KindMissingManifestFile     ErrorKind = "MissingManifestFile"
	KindSymlinkNotAllowed       ErrorKind = "SymlinkNotAllowed"
	KindHiddenFileFound         ErrorKind = "HiddenFileFound"
	KindUnexpectedTopLevelEntry ErrorKind = "UnexpectedTopLevelEntry"
	KindFileMissing             ErrorKind = "FileMissing"
	KindSizeMismatch            ErrorKind = "SizeMismatch"
	KindHashMismatch            ErrorKind = "HashMismatch"
	KindUnreferencedFile        ErrorKind = "UnreferencedFile"
	KindInvalidPackagePath      ErrorKind = "InvalidPackagePath"
)

// Error names the offending path, per §7's integrity-error requirement.
type Error struct {
	Kind ErrorKind
	Path string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pkgvalidate: %s(%q)", e.Kind, e.Path)
}

func pathErr(kind ErrorKind, path string) error {
	return &Error{Kind: kind, Path: path}
}

var crufBasenames = map[string]struct{}{
	"__MACOSX":   {},
	".DS_Store":  {},
	"Thumbs.db":  {},
}

func isHiddenOrCruft(basename string) bool {
	if _, bad := crufBasenames[basename]; bad {
		return true
	}
	if strings.HasPrefix(basename, ".") || strings.HasPrefix(basename, "._") {
		return true
	}
	return false
}

// Validate checks root against m per §4.3's seven rules, using hasher to
// compute file digests.
func Validate(root string, m manifest.Manifest, hasher collab.Hasher) error {
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return fmt.Errorf("pkgvalidate: resolve root: %w", err)
	}

	manifestPath := filepath.Join(resolvedRoot, "manifest.json")
	if _, err := os.Stat(manifestPath); err != nil {
		return pathErr(KindMissingManifestFile, "manifest.json")
	}

	topEntries, err := os.ReadDir(resolvedRoot)
	if err != nil {
		return fmt.Errorf("pkgvalidate: read root: %w", err)
	}
	seenArtifacts := false
	for _, e := range topEntries {
		switch e.Name() {
		case "manifest.json":
		case "artifacts":
			seenArtifacts = true
		default:
			return pathErr(KindUnexpectedTopLevelEntry, e.Name())
		}
	}
	if !seenArtifacts {
		return pathErr(KindUnexpectedTopLevelEntry, "artifacts")
	}

	diskFiles, err := enumerateFiles(resolvedRoot)
	if err != nil {
		return err
	}

	manifestByPath := make(map[string]manifest.FileDescriptor, len(m.Files))
	for _, f := range m.Files {
		if !strings.HasPrefix(f.Path, "artifacts/") {
			return pathErr(KindInvalidPackagePath, f.Path)
		}
		if err := manifest.ValidatePath(f.Path); err != nil {
			return pathErr(KindInvalidPackagePath, f.Path)
		}
		manifestByPath[f.Path] = f
	}

	if err := verifyFiles(resolvedRoot, m.Files, hasher); err != nil {
		return err
	}

	for _, relPath := range diskFiles {
		if relPath == "manifest.json" {
			continue
		}
		if _, ok := manifestByPath[relPath]; !ok {
			return pathErr(KindUnreferencedFile, relPath)
		}
	}

	return nil
}

// verifyFiles checks every manifest file exists on disk with the right
// size and hash. Checks run concurrently (bounded by
// maxConcurrentFileChecks) but the reported error is always the one for
// the lowest-indexed file in m.Files that failed, so the outcome is
// independent of goroutine scheduling.
func verifyFiles(resolvedRoot string, files []manifest.FileDescriptor, hasher collab.Hasher) error {
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(maxConcurrentFileChecks)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			errs[i] = verifyFile(resolvedRoot, f, hasher)
			return nil
		})
	}
	_ = g.Wait() // verifyFile never returns an error through errgroup itself

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func verifyFile(resolvedRoot string, f manifest.FileDescriptor, hasher collab.Hasher) error {
	full := filepath.Join(resolvedRoot, filepath.FromSlash(f.Path))
	resolvedFull, err := filepath.EvalSymlinks(full)
	if err != nil {
		return pathErr(KindFileMissing, f.Path)
	}
	info, err := os.Stat(resolvedFull)
	if err != nil {
		return pathErr(KindFileMissing, f.Path)
	}
	if info.Size() != f.Bytes {
		return pathErr(KindSizeMismatch, f.Path)
	}
	data, err := os.ReadFile(resolvedFull) // #nosec G304 -- path already validated and root-confined
	if err != nil {
		return pathErr(KindFileMissing, f.Path)
	}
	sum := hasher.Sum256(data)
	if hex32(sum) != f.SHA256 {
		return pathErr(KindHashMismatch, f.Path)
	}
	return nil
}

// enumerateFiles walks root and returns every regular file's path
// relative to root, using '/' separators. Symlinks and hidden/cruft
// entries fail enumeration outright rather than being silently skipped.
func enumerateFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if isHiddenOrCruft(d.Name()) {
			rel, _ := filepath.Rel(root, path)
			return pathErr(KindHiddenFileFound, filepath.ToSlash(rel))
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			rel, _ := filepath.Rel(root, path)
			return pathErr(KindSymlinkNotAllowed, filepath.ToSlash(rel))
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func hex32(sum [32]byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 64)
	for i, b := range sum {
		out[i*2] = digits[b>>4]
		out[i*2+1] = digits[b&0x0F]
	}
	return string(out)
}
