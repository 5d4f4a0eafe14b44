// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config's YAML-facing surface. Kept separate from
// Config itself so zero-value YAML fields ("" / 0) can be distinguished
// from "operator explicitly set this" during merge.
type fileConfig struct {
	Tier                string  `yaml:"tier,omitempty"`
	GateWeightView      *float64 `yaml:"gateWeightView,omitempty"`
	GateWeightGeom      *float64 `yaml:"gateWeightGeom,omitempty"`
	GateWeightBasic     *float64 `yaml:"gateWeightBasic,omitempty"`
	MinViewGain         *float64 `yaml:"minViewGain,omitempty"`
	MinBasicGain        *float64 `yaml:"minBasicGain,omitempty"`
	HysteresisCooldown  *int     `yaml:"hysteresisCooldown,omitempty"`
	LUTAdmission        *bool    `yaml:"lutAdmission,omitempty"`
	WALBackend          string  `yaml:"walBackend,omitempty"`
	WALBusyTimeoutMS    *int     `yaml:"walBusyTimeoutMs,omitempty"`
	PolicyHash          string  `yaml:"policyHash,omitempty"`
}

// Load reads a strict YAML configuration document from path and merges it
// onto Default(policyHash), where policyHash is the document's policyHash
// value. Unknown top-level keys fail closed with
// ErrUnknownConfigField, matching the closed-world decoding posture the
// rest of this module enforces for manifests and reports.
func Load(path string) (Config, error) {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return Config{}, fmt.Errorf("config: unsupported format %q (only YAML supported)", ext)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator-provided config path
	if err != nil {
		return Config{}, fmt.Errorf("config: read file: %w", err)
	}

	fc, err := decodeStrict(data)
	if err != nil {
		return Config{}, err
	}

	cfg := Default(fc.PolicyHash)
	if fc.Tier != "" {
		cfg.Tier = Tier(fc.Tier)
	}
	if fc.GateWeightView != nil {
		cfg.GateWeights.View = *fc.GateWeightView
	}
	if fc.GateWeightGeom != nil {
		cfg.GateWeights.Geom = *fc.GateWeightGeom
	}
	if fc.GateWeightBasic != nil {
		cfg.GateWeights.Basic = *fc.GateWeightBasic
	}
	if fc.MinViewGain != nil {
		cfg.MinViewGain = *fc.MinViewGain
	}
	if fc.MinBasicGain != nil {
		cfg.MinBasicGain = *fc.MinBasicGain
	}
	if fc.HysteresisCooldown != nil {
		cfg.HysteresisCooldown = *fc.HysteresisCooldown
	}
	if fc.LUTAdmission != nil {
		cfg.LUTAdmission = *fc.LUTAdmission
	}
	if fc.WALBackend != "" {
		cfg.WALBackend = WALBackend(fc.WALBackend)
	}
	if fc.WALBusyTimeoutMS != nil {
		cfg.WALBusyTimeoutMS = *fc.WALBusyTimeoutMS
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeStrict(data []byte) (fileConfig, error) {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fc); err != nil {
		if err == io.EOF {
			return fileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fileConfig{}, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fileConfig{}, fmt.Errorf("config: strict parse error: %w", err)
	}

	// Reject multiple documents / trailing content.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fileConfig{}, fmt.Errorf("config: file contains multiple documents or trailing content")
	}

	return fc, nil
}
