// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package walfactory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aether3d/capturecore/internal/config"
	"github.com/stretchr/testify/require"
)

func baseConfig() config.Config {
	return config.Default("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcd")
}

func TestOpenFileBackend(t *testing.T) {
	cfg := baseConfig()
	cfg.WALBackend = config.WALBackendFile
	path := filepath.Join(t.TempDir(), "wal.bin")

	store, err := Open(cfg, path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.ReadAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestOpenSQLiteBackend(t *testing.T) {
	cfg := baseConfig()
	cfg.WALBackend = config.WALBackendSQLite
	path := filepath.Join(t.TempDir(), "wal.sqlite")

	store, err := Open(cfg, path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.ReadAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	cfg := baseConfig()
	cfg.WALBackend = config.WALBackend("carrier-pigeon")

	_, err := Open(cfg, filepath.Join(t.TempDir(), "wal"))
	require.Error(t, err)
}
