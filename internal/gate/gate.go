// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package gate computes the three-factor deterministic quality score
// consumed by the capture UI and persisted through the WAL. Invalid
// inputs never panic: the validator returns a computed worst-case
// fallback quality instead of a sentinel constant.
package gate

import (
	"fmt"
	"math"

	"github.com/aether3d/capturecore/internal/quant"
)

// Weights are the three gain weights; they must sum to exactly 1.0.
type Weights struct {
	View float64
	Geom float64
	Basic float64
}

// Sum reports the weight total. Callers validate this equals 1.0 at
// construction time, per §9's build-time assertion.
func (w Weights) Sum() float64 {
	return w.View + w.Geom + w.Basic
}

// Input is the raw per-patch measurement set fed into the gate.
type Input struct {
	ThetaSpanDeg       float64
	PhiSpanDeg         float64
	L2PlusCount        int
	L3Count            int
	ReprojRMSPx        float64
	EdgeRMSPx          float64
	Sharpness          float64
	OverexposureRatio  float64
	UnderexposureRatio float64
}

// InvalidInputError names the offending field, matching §7's requirement
// that validators name the field and value.
type InvalidInputError struct {
	Field string
	Value float64
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("gate: invalid input field %q (value=%v)", e.Field, e.Value)
}

// sharpnessThreshold (gamma-1 in §4.7) is the sharpness level at which
// basic_gain's sharpness factor reaches 0.5.
const sharpnessThreshold = 0.5

// Validate rejects non-finite values per field; counts must be
// non-negative; ratios must lie in [0,1]. It returns the first
// violation found.
func Validate(in Input) error {
	finiteFields := map[string]float64{
		"theta_span_deg":      in.ThetaSpanDeg,
		"phi_span_deg":        in.PhiSpanDeg,
		"reproj_rms_px":       in.ReprojRMSPx,
		"edge_rms_px":         in.EdgeRMSPx,
		"sharpness":           in.Sharpness,
		"overexposure_ratio":  in.OverexposureRatio,
		"underexposure_ratio": in.UnderexposureRatio,
	}
	for _, field := range []string{"theta_span_deg", "phi_span_deg", "reproj_rms_px", "edge_rms_px", "sharpness", "overexposure_ratio", "underexposure_ratio"} {
		v := finiteFields[field]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidInputError{Field: field, Value: v}
		}
	}
	if in.L2PlusCount < 0 {
		return &InvalidInputError{Field: "l2_plus_count", Value: float64(in.L2PlusCount)}
	}
	if in.L3Count < 0 {
		return &InvalidInputError{Field: "l3_count", Value: float64(in.L3Count)}
	}
	if in.OverexposureRatio < 0 || in.OverexposureRatio > 1 {
		return &InvalidInputError{Field: "overexposure_ratio", Value: in.OverexposureRatio}
	}
	if in.UnderexposureRatio < 0 || in.UnderexposureRatio > 1 {
		return &InvalidInputError{Field: "underexposure_ratio", Value: in.UnderexposureRatio}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ViewGain computes §4.7's first factor.
func ViewGain(in Input, minViewGain float64) float64 {
	mean := (quant.StableLogistic(in.ThetaSpanDeg-26) +
		quant.StableLogistic(in.PhiSpanDeg-15) +
		quant.StableLogistic(float64(in.L2PlusCount)-13) +
		quant.StableLogistic(float64(in.L3Count)-5)) / 4
	v := clamp01(mean)
	if v < minViewGain {
		return minViewGain
	}
	return v
}

// GeomGain computes §4.7's second factor.
func GeomGain(in Input) float64 {
	return clamp01(quant.StableLogistic(-(in.ReprojRMSPx-0.48)) * quant.StableLogistic(-(in.EdgeRMSPx - 0.23)))
}

// BasicGain computes §4.7's third factor.
func BasicGain(in Input, minBasicGain float64) float64 {
	v := quant.StableLogistic(in.Sharpness-sharpnessThreshold) *
		quant.StableLogistic(-(in.OverexposureRatio - 0.30)) *
		quant.StableLogistic(-(in.UnderexposureRatio - 0.35))
	v = clamp01(v)
	if v < minBasicGain {
		return minBasicGain
	}
	return v
}

// Result is the gate's output: three gains plus the combined, quantized
// quality. Only Quality crosses a component boundary in production; the
// individual gains are exposed for logging/explainability.
type Result struct {
	ViewGain  float64
	GeomGain  float64
	BasicGain float64
	Quality   quant.Q01
}

// Score runs the full gate pipeline: validate, compute the three gains,
// combine them by weight, and quantize. On validation failure it returns
// a computed fallback quality bounded above by minViewGain rather than
// failing the caller outright — the gate must never panic on bad input.
func Score(in Input, weights Weights, minViewGain, minBasicGain float64) Result {
	if err := Validate(in); err != nil {
		return Result{Quality: quant.ToQ01(fallbackQuality(in, minViewGain))}
	}

	view := ViewGain(in, minViewGain)
	geom := GeomGain(in)
	basic := BasicGain(in, minBasicGain)

	quality := clamp01(weights.View*view + weights.Geom*geom + weights.Basic*basic)
	return Result{ViewGain: view, GeomGain: geom, BasicGain: basic, Quality: quant.ToQ01(quality)}
}

// fallbackQuality computes a worst-case quality from whatever fields of
// in are usable, rather than returning a constant: any field that is
// itself non-finite contributes its worst plausible value (0) to the
// fallback instead of propagating NaN.
func fallbackQuality(in Input, minViewGain float64) float64 {
	safe := func(v float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}
	theta := safe(in.ThetaSpanDeg)
	phi := safe(in.PhiSpanDeg)
	l2 := float64(in.L2PlusCount)
	if in.L2PlusCount < 0 {
		l2 = 0
	}
	l3 := float64(in.L3Count)
	if in.L3Count < 0 {
		l3 = 0
	}

	mean := (quant.StableLogistic(theta-26) + quant.StableLogistic(phi-15) +
		quant.StableLogistic(l2-13) + quant.StableLogistic(l3-5)) / 4
	fallback := clamp01(mean)
	if fallback > minViewGain {
		fallback = minViewGain
	}
	return fallback
}
