// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// capturectl is a CLI for inspecting capture artifacts offline.
//
// Usage:
//
//	capturectl validate -f manifest.json
//	capturectl verify-wal -db wal.sqlite
//
// Exit codes:
//   - 0: valid / healthy
//   - 1: validation or integrity error
//   - 2: usage error
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aether3d/capturecore/internal/manifest"
	"github.com/aether3d/capturecore/internal/wal/sqlitestore"
)

var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "validate":
		runValidate(os.Args[2:])
	case "verify-wal":
		runVerifyWAL(os.Args[2:])
	case "version":
		fmt.Println(Version)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  capturectl validate -f manifest.json")
	fmt.Fprintln(os.Stderr, "  capturectl verify-wal -db wal.sqlite [-mode quick|full]")
	fmt.Fprintln(os.Stderr, "  capturectl version")
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var file string
	fs.StringVar(&file, "file", "", "path to manifest.json")
	fs.StringVar(&file, "f", "", "path to manifest.json (shorthand)")
	_ = fs.Parse(args)

	if file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		os.Exit(2)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s:\n  %v\n", file, err)
		os.Exit(1)
	}

	m, err := manifest.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Manifest error in %s:\n  %v\n", file, err)
		os.Exit(1)
	}

	fmt.Printf("%s is valid (artifact_hash=%s, schema_version=%d)\n", file, m.ArtifactHash, m.SchemaVersion)
}

func runVerifyWAL(args []string) {
	fs := flag.NewFlagSet("verify-wal", flag.ExitOnError)
	var dbPath, mode string
	fs.StringVar(&dbPath, "db", "", "path to the WAL sqlite database")
	fs.StringVar(&mode, "mode", "quick", "integrity check mode: quick or full")
	_ = fs.Parse(args)

	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --db is required")
		os.Exit(2)
	}

	store, err := sqlitestore.Open(dbPath, sqlitestore.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s:\n  %v\n", dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	issues, err := store.VerifyIntegrity(mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error verifying %s:\n  %v\n", dbPath, err)
		os.Exit(1)
	}
	if len(issues) > 0 {
		fmt.Fprintf(os.Stderr, "%s failed integrity check:\n", dbPath)
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  %s\n", issue)
		}
		os.Exit(1)
	}

	fmt.Printf("%s is healthy\n", dbPath)
}
