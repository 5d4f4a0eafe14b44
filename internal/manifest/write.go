// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manifest

import (
	"fmt"

	"github.com/google/renameio/v2"
)

// WriteFile atomically writes m's canonical bytes to path, followed by a
// trailing '\n': renameio handles temp-file creation, fsync, and atomic
// rename so a crash or concurrent reader never observes a partially
// written manifest.json. The trailing newline sits outside the hashed
// canonical byte region; it is a file-layout convention, not a change
// to what CanonicalBytes/SHA256 hash.
func WriteFile(path string, m Manifest) error {
	data, err := CanonicalBytes(m)
	if err != nil {
		return fmt.Errorf("manifest: write: %w", err)
	}
	data = append(data, '\n')

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("manifest: create pending file: %w", err)
	}
	defer func() {
		_ = pendingFile.Cleanup()
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("manifest: write pending file: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("manifest: atomically replace file: %w", err)
	}

	return nil
}
