// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package bucket quantizes a unit direction vector into discrete angular
// buckets without ever calling a trigonometric function on the
// production path. Bucket indices are pure functions of the input vector
// and are stable across platforms, unlike atan2/asin whose last-bit
// behavior varies by libm.
package bucket

import "math"

// PhiBuckets is the number of latitude buckets.
const PhiBuckets = 12

// ThetaBuckets is the number of azimuth buckets.
const ThetaBuckets = 24

const degenerateEpsilon = 1e-12

// Phi maps dy (clamped to [-1,1]) linearly onto [0, PhiBuckets), floored
// and clamped to [0, PhiBuckets-1]. dy is the sine of latitude for a unit
// direction vector, so this never needs asin.
func Phi(dy float64) int {
	if math.IsNaN(dy) {
		dy = 0
	}
	if dy < -1 {
		dy = -1
	}
	if dy > 1 {
		dy = 1
	}
	// map [-1,1] -> [0, PhiBuckets)
	scaled := (dy + 1) / 2 * PhiBuckets
	idx := int(math.Floor(scaled))
	if idx < 0 {
		idx = 0
	}
	if idx > PhiBuckets-1 {
		idx = PhiBuckets - 1
	}
	return idx
}

// thetaSplits maps a within-octant ratio t = min(|dx|,|dz|)/max(|dx|,|dz|)
// to one of the 3 sub-bucket offsets spanning an octant's 45 degrees, by
// the angle at which a pure bucketed 15-degree split would fall: t below
// tan(15deg) is within the first 15-degree wedge nearest the dominant
// axis, below tan(30deg) the second, otherwise the third.
var thetaSplits = [2]float64{0.26794919243112270, 0.57735026918962573} // tan(15deg), tan(30deg)

func thetaSubIndex(t float64) int {
	switch {
	case t < thetaSplits[0]:
		return 0
	case t < thetaSplits[1]:
		return 1
	default:
		return 2
	}
}

// Theta buckets the azimuth of (dx,dz) into one of 24 15-degree wedges
// without calling atan2. It picks one of 8 octants from the signs of dx
// and dz and which axis dominates, then resolves a 3-way sub-bucket
// within the octant from the dominance ratio t. A vector too close to
// the origin in the (dx,dz) plane (dx^2+dz^2 < epsilon) is degenerate and
// deterministically returns bucket 0.
func Theta(dx, dz float64) int {
	if math.IsNaN(dx) {
		dx = 0
	}
	if math.IsNaN(dz) {
		dz = 0
	}
	if dx*dx+dz*dz < degenerateEpsilon {
		return 0
	}

	ax, az := math.Abs(dx), math.Abs(dz)
	xDominant := ax >= az
	var t float64
	if xDominant {
		t = az / ax
	} else {
		t = ax / az
	}
	sub := thetaSubIndex(t)

	// Octant base indices in CCW order starting at +x axis (bucket 0),
	// each octant spans exactly 3 of the 24 buckets.
	var octant int
	switch {
	case dx >= 0 && dz >= 0 && xDominant:
		octant = 0 // 0-45, nearest +x
	case dx >= 0 && dz >= 0 && !xDominant:
		octant = 1 // 45-90, nearest +z
	case dx < 0 && dz >= 0 && !xDominant:
		octant = 2 // 90-135
	case dx < 0 && dz >= 0 && xDominant:
		octant = 3 // 135-180, nearest -x
	case dx < 0 && dz < 0 && xDominant:
		octant = 4 // 180-225
	case dx < 0 && dz < 0 && !xDominant:
		octant = 5 // 225-270, nearest -z
	case dx >= 0 && dz < 0 && !xDominant:
		octant = 6 // 270-315
	default: // dx >= 0 && dz < 0 && xDominant
		octant = 7 // 315-360
	}

	// Within odd-numbered octants the ratio t increases as the angle
	// moves away from the dominant axis toward the octant boundary just
	// passed, so the sub-bucket order inverts relative to even octants.
	if octant%2 == 1 {
		sub = 2 - sub
	}

	idx := octant*3 + sub
	if idx < 0 {
		idx = 0
	}
	if idx > ThetaBuckets-1 {
		idx = ThetaBuckets - 1
	}
	return idx
}

// ShadowTrig computes the same theta bucket using atan2, for debug-only
// cross-verification against Theta. It must never be called from a
// production code path: its purpose is solely to catch a divergence
// between the zero-trig approximation and the textbook definition on a
// dense grid during testing.
func ShadowTrig(dx, dz float64) int {
	if dx*dx+dz*dz < degenerateEpsilon {
		return 0
	}
	angle := math.Atan2(dz, dx)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	idx := int(angle / (2 * math.Pi) * ThetaBuckets)
	if idx < 0 {
		idx = 0
	}
	if idx > ThetaBuckets-1 {
		idx = ThetaBuckets - 1
	}
	return idx
}
