// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func validPolicyHash() string {
	return "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default(validPolicyHash())
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadGateWeights(t *testing.T) {
	cfg := Default(validPolicyHash())
	cfg.GateWeights = GateWeights{View: 0.5, Geom: 0.5, Basic: 0.5}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsShortPolicyHash(t *testing.T) {
	cfg := Default("abc123")
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownTier(t *testing.T) {
	cfg := Default(validPolicyHash())
	cfg.Tier = Tier("mystery")
	require.Error(t, cfg.Validate())
}

func TestAllowLUTOnlyInBenchmarkTierWithAdmission(t *testing.T) {
	cfg := Default(validPolicyHash())
	require.False(t, cfg.AllowLUT())

	cfg.Tier = TierBenchmark
	require.False(t, cfg.AllowLUT(), "admission flag still false")

	cfg.LUTAdmission = true
	require.True(t, cfg.AllowLUT())

	cfg.Tier = TierCanonical
	require.False(t, cfg.AllowLUT(), "canonical tier forbids LUT regardless of admission")
}

func TestLoadStrictRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policyHash: \""+validPolicyHash()+"\"\nbogusField: true\n"), 0o600))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoadStrictAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := "tier: benchmark\nlutAdmission: true\npolicyHash: \"" + validPolicyHash() + "\"\nwalBackend: sqlite\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, TierBenchmark, cfg.Tier)
	require.True(t, cfg.LUTAdmission)
	require.Equal(t, WALBackendSQLite, cfg.WALBackend)
}

func TestCloneIsAliasFree(t *testing.T) {
	cfg := Default(validPolicyHash())
	cloned := Clone(cfg)
	cloned.PolicyHash = "changed"
	require.NotEqual(t, cfg.PolicyHash, cloned.PolicyHash)
}
