// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package walfactory constructs a wal.Storage backend from a config.Config,
// so nothing above it needs to know that wal.Log is backend-agnostic.
package walfactory

import (
	"fmt"
	"time"

	"github.com/aether3d/capturecore/internal/config"
	"github.com/aether3d/capturecore/internal/wal"
	"github.com/aether3d/capturecore/internal/wal/filestore"
	"github.com/aether3d/capturecore/internal/wal/sqlitestore"
)

// Open constructs the wal.Storage backend selected by cfg.WALBackend,
// rooted at path. For WALBackendFile, path is the WAL record file; for
// WALBackendSQLite, path is the SQLite database file.
func Open(cfg config.Config, path string) (wal.Storage, error) {
	switch cfg.WALBackend {
	case config.WALBackendFile:
		store, err := filestore.Open(path)
		if err != nil {
			return nil, fmt.Errorf("walfactory: open file backend: %w", err)
		}
		return store, nil
	case config.WALBackendSQLite:
		sqlCfg := sqlitestore.DefaultConfig()
		if cfg.WALBusyTimeoutMS > 0 {
			sqlCfg.BusyTimeout = time.Duration(cfg.WALBusyTimeoutMS) * time.Millisecond
		}
		store, err := sqlitestore.Open(path, sqlCfg)
		if err != nil {
			return nil, fmt.Errorf("walfactory: open sqlite backend: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("walfactory: unknown wal backend %q", cfg.WALBackend)
	}
}
