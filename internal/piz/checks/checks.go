// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package checks names the PIZ detector's tunable thresholds as a
// single constant table, rather than scattering them as inline magic
// numbers through the detection logic. These are build-time constants,
// not runtime configuration: changing a threshold means a new build,
// not a new deployment config.
package checks

const (
	// CoveredCellMin is the per-cell coverage value at or above which a
	// grid cell counts as "covered" rather than part of a low-coverage
	// region.
	CoveredCellMin = 0.5

	// MinRegionPixels is the smallest connected-component size reported
	// as a region; smaller components are treated as noise.
	MinRegionPixels = 4

	// LocalAreaRatioMin is the minimum fraction of the grid a
	// low-coverage component must occupy before its local coverage is
	// checked against LocalCoverageMin.
	LocalAreaRatioMin = 0.02

	// LocalCoverageMin is the per-region coverage floor a component must
	// fall under, alongside LocalAreaRatioMin, to be reported.
	LocalCoverageMin = CoveredCellMin

	// GlobalCoverageMin is the whole-grid coverage floor below which
	// GlobalTrigger fires regardless of individual region sizes.
	GlobalCoverageMin = 0.5

	// MaxReportedRegions caps how many regions a single report carries;
	// excess regions are dropped after sorting by bounding box (min row,
	// min col, max row, max col) and then region id.
	MaxReportedRegions = 8
)
