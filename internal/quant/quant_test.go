// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package quant

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToQ01ClampsAndRoundsHalfAwayFromZero(t *testing.T) {
	require.Equal(t, Q01(0), ToQ01(-5))
	require.Equal(t, Q01(Q01Scale), ToQ01(5))
	require.Equal(t, Q01(500_000_000_000), ToQ01(0.5))
}

func TestStableLogisticClampsSpecialInputs(t *testing.T) {
	require.Equal(t, 0.5, StableLogistic(math.NaN()))
	require.Equal(t, 1.0, StableLogistic(math.Inf(1)))
	require.Equal(t, 0.0, StableLogistic(math.Inf(-1)))
}

func TestStableLogisticMonotoneOverSweep(t *testing.T) {
	prev := math.Inf(-1)
	for x := -1000.0; x <= 1000.0; x += 17.0 {
		v := StableLogistic(x)
		require.GreaterOrEqual(t, v, prev)
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
		prev = v
	}
}

func TestGuardedLUTForbiddenOutsideBenchmarkTier(t *testing.T) {
	table := NewLUT(-20, 20, 4096)
	_, err := GuardedLUT(table, 0, TierCanonical, true)
	require.Error(t, err)
	_, err = GuardedLUT(table, 0, TierBenchmark, false)
	require.Error(t, err)
}

func TestGuardedLUTAllowedInBenchmarkTier(t *testing.T) {
	table := NewLUT(-20, 20, 4096)
	v, err := GuardedLUT(table, 0, TierBenchmark, true)
	require.NoError(t, err)
	require.InDelta(t, 0.5, v, 0.01)
}

func TestVerifyLUTWithinErrorBound(t *testing.T) {
	table := NewLUT(-1000, 1000, 200_000)
	xs := []float64{-1000, -100, -10, -8, -1, 0, 1, 8, 10, 100, 1000}
	require.NoError(t, VerifyLUT(table, xs))
}

func TestVerifyLUTDetectsNonMonotone(t *testing.T) {
	// Within the error bound at both samples, but the second output
	// (0.5 - 1e-8) is below the first (0.5).
	table := &LUT{xMin: 0, xMax: 1, step: 1, values: []float64{0.5, 0.49}}
	err := VerifyLUT(table, []float64{0, 1e-6})
	require.Error(t, err)
	var lutErr *LUTError
	require.ErrorAs(t, err, &lutErr)
	require.True(t, lutErr.NonMonotone)
}
