// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package coverage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func dirFromDeg(deg float64) (dx, dy, dz float64) {
	rad := deg * math.Pi / 180
	return math.Cos(rad), 0, math.Sin(rad)
}

func TestCircularSpanBitsZeroAndTwentyThree(t *testing.T) {
	p := NewPatch()
	dx0, dy0, dz0 := dirFromDeg(7.5) // center of bucket 0
	p.Record(dx0, dy0, dz0, 0.5, 1)
	dx23, dy23, dz23 := dirFromDeg(352.5) // center of bucket 23
	p.Record(dx23, dy23, dz23, 0.5, 2)

	thetaSpan, _, _, _ := p.ViewGainInputs()
	require.Equal(t, 30.0, thetaSpan)
}

func TestEmptyPatchHasZeroSpan(t *testing.T) {
	p := NewPatch()
	thetaSpan, phiSpan, l2, l3 := p.ViewGainInputs()
	require.Equal(t, 0.0, thetaSpan)
	require.Equal(t, 0.0, phiSpan)
	require.Equal(t, 0, l2)
	require.Equal(t, 0, l3)
}

func TestSingleObservationHasZeroThetaSpan(t *testing.T) {
	p := NewPatch()
	dx, dy, dz := dirFromDeg(10)
	p.Record(dx, dy, dz, 0.9, 1)
	thetaSpan, _, _, _ := p.ViewGainInputs()
	require.Equal(t, 0.0, thetaSpan)
}

func TestL2PlusAndL3CountOncePerBucketPair(t *testing.T) {
	p := NewPatch()
	dx, dy, dz := dirFromDeg(10)
	p.Record(dx, dy, dz, 0.7, 1) // counts both L2+ and L3
	p.Record(dx, dy, dz, 0.7, 2) // same bucket pair, must not double count
	_, _, l2, l3 := p.ViewGainInputs()
	require.Equal(t, 1, l2)
	require.Equal(t, 1, l3)
}

func TestObservationOrderDoesNotAffectSpan(t *testing.T) {
	directions := []float64{10, 80, 190, 280, 350}
	a := NewPatch()
	for i, d := range directions {
		dx, dy, dz := dirFromDeg(d)
		a.Record(dx, dy, dz, 0.5, int64(i))
	}
	b := NewPatch()
	for i := len(directions) - 1; i >= 0; i-- {
		dx, dy, dz := dirFromDeg(directions[i])
		b.Record(dx, dy, dz, 0.5, int64(i))
	}
	aTheta, aPhi, _, _ := a.ViewGainInputs()
	bTheta, bPhi, _, _ := b.ViewGainInputs()
	require.Equal(t, aTheta, bTheta)
	require.Equal(t, aPhi, bPhi)
}

func TestRingEvictsByFrameIndexNotInsertionOrder(t *testing.T) {
	p := NewPatch()
	for i := 0; i < maxRecords; i++ {
		dx, dy, dz := dirFromDeg(float64(i % 360))
		p.Record(dx, dy, dz, 0.1, int64(i+100))
	}
	// Insert a record with a smaller frame index than everything already
	// held; this forces an eviction, and the new, low-frame-index record is
	// itself the oldest by frame index, so it is the one removed right away
	// rather than the earliest-inserted record.
	dx, dy, dz := dirFromDeg(45)
	p.Record(dx, dy, dz, 0.1, 0)
	require.Len(t, p.records, maxRecords)

	dx2, dy2, dz2 := dirFromDeg(46)
	p.Record(dx2, dy2, dz2, 0.1, 999)
	require.Len(t, p.records, maxRecords)
	for _, r := range p.records {
		require.NotEqual(t, int64(0), r.FrameIndex)
	}
}
