// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package piz implements the PIZ region detector: a deterministic
// connected-component analysis over a 32x32 coverage heat-map that
// identifies areas needing a re-scan. Every step — scan order, neighbor
// order, region sort order — is fixed so two runs over the same grid
// produce byte-identical reports regardless of any incidental iteration
// order a map or goroutine schedule might otherwise introduce.
package piz

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/aether3d/capturecore/internal/piz/checks"
)

// GridSize is the fixed heat-map dimension.
const GridSize = 32

// Grid is a 32x32 row-major coverage heat-map; Grid[row][col].
type Grid [GridSize][GridSize]float64

// Tunable detector thresholds, named in internal/piz/checks so they
// read as a single table rather than scattered inline constants.
const (
	CoveredCellMin     = checks.CoveredCellMin
	MinRegionPixels    = checks.MinRegionPixels
	LocalAreaRatioMin  = checks.LocalAreaRatioMin
	LocalCoverageMin   = checks.LocalCoverageMin
	GlobalCoverageMin  = checks.GlobalCoverageMin
	MaxReportedRegions = checks.MaxReportedRegions
)

// Priority is the recapture-suggestion urgency.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Recommendation is the gate's accept/recapture verdict for the grid.
// RecommendationInsufficientData marks a report produced from a grid
// that failed Validate: it carries no regions and no coverage figures,
// only the fixed sentinel timestamp, since the detector never ran.
type Recommendation string

const (
	RecommendationAccept           Recommendation = "accept"
	RecommendationRecapture        Recommendation = "recapture"
	RecommendationInsufficientData Recommendation = "insufficient_data"
)

// insufficientDataTimestampNS is the fixed epoch timestamp an
// INSUFFICIENT_DATA report carries. The detector is pure and has no
// wall-clock access, so this is a constant sentinel, not a captured
// time.
const insufficientDataTimestampNS int64 = 0

// BBox is an inclusive cell-index bounding box.
type BBox struct {
	MinRow, MaxRow, MinCol, MaxCol int
}

// Point is a (row, col) position; centroid values are fractional since
// they average integer cell positions.
type Point struct {
	Row, Col float64
}

// Region is one detected low-coverage area.
type Region struct {
	ID                string
	PixelCount        int
	AreaRatio         float64
	BBox              BBox
	Centroid          Point
	PrincipalDirection Point
	Severity          float64
}

// Result is the full detector output before schema wrapping.
// TimestampNS is only meaningful when Recommendation is
// RecommendationInsufficientData; for an ordinary detector run it is
// always zero and carries no meaning.
type Result struct {
	GlobalTrigger  bool
	GlobalCoverage float64
	Regions        []Region
	Recommendation Recommendation
	Priority       Priority
	TimestampNS    int64
}

// ErrorKind enumerates detector-level failures.
type ErrorKind string

const (
	KindInvalidShape ErrorKind = "InvalidShape" // unreachable: Grid is fixed-size
	KindNonFinite    ErrorKind = "NonFiniteValue"
	KindSubnormal    ErrorKind = "SubnormalValue"
	KindOutOfRange   ErrorKind = "OutOfRangeValue"
)

// Error names the offending row/col, per §7's user-visible requirement.
type Error struct {
	Kind ErrorKind
	Row  int
	Col  int
}

func (e *Error) Error() string {
	return "piz: " + string(e.Kind) + " at cell"
}

// Validate checks every cell is finite, non-subnormal, and in [0,1].
// Zero is explicitly allowed (it is not subnormal).
func Validate(g Grid) error {
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			v := g[r][c]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &Error{Kind: KindNonFinite, Row: r, Col: c}
			}
			if v != 0 && isSubnormal(v) {
				return &Error{Kind: KindSubnormal, Row: r, Col: c}
			}
			if v < 0 || v > 1 {
				return &Error{Kind: KindOutOfRange, Row: r, Col: c}
			}
		}
	}
	return nil
}

// insufficientDataResult is the report Detect returns when the input
// grid fails Validate.
func insufficientDataResult() Result {
	return Result{
		Recommendation: RecommendationInsufficientData,
		Priority:       PriorityLow,
		TimestampNS:    insufficientDataTimestampNS,
	}
}

func isSubnormal(v float64) bool {
	bits := math.Float64bits(v)
	exponent := (bits >> 52) & 0x7FF
	return exponent == 0
}

// Detect runs the full deterministic pipeline over g. previous feeds the
// hysteresis bias for the gate recommendation; pass "" on the first call
// for a session. A grid that fails Validate never reaches the pipeline:
// Detect returns an INSUFFICIENT_DATA report (nil error) so a caller can
// tell "bad input" apart from "accept" by inspecting Recommendation
// rather than by branching on err.
func Detect(g Grid, previous Recommendation) (Result, error) {
	if err := Validate(g); err != nil {
		return insufficientDataResult(), nil
	}

	totalCells := GridSize * GridSize
	coveredCount := 0
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if g[r][c] >= CoveredCellMin {
				coveredCount++
			}
		}
	}
	globalCoverage := float64(coveredCount) / float64(totalCells)
	globalTrigger := globalCoverage < GlobalCoverageMin

	components := findComponents(g)

	var regions []Region
	for _, comp := range components {
		if len(comp) < MinRegionPixels {
			continue
		}
		areaRatio := float64(len(comp)) / float64(totalCells)
		localCoverage := meanValue(g, comp)
		if areaRatio >= LocalAreaRatioMin && localCoverage < LocalCoverageMin {
			regions = append(regions, buildRegion(comp, localCoverage))
		}
	}

	if globalTrigger && len(regions) == 0 {
		regions = []Region{synthesizeFullGridRegion(globalCoverage)}
	}

	sortRegions(regions)
	if len(regions) > MaxReportedRegions {
		regions = regions[:MaxReportedRegions]
	}

	maxSeverity := 0.0
	for _, rg := range regions {
		if rg.Severity > maxSeverity {
			maxSeverity = rg.Severity
		}
	}

	rec := computeRecommendation(maxSeverity, previous)
	pri := computePriority(maxSeverity)

	return Result{
		GlobalTrigger:  globalTrigger,
		GlobalCoverage: globalCoverage,
		Regions:        regions,
		Recommendation: rec,
		Priority:       pri,
	}, nil
}

type cell struct{ row, col int }

// findComponents runs 4-connectivity BFS (never DFS) over uncovered
// cells, scanning in row-major order and visiting neighbors in the fixed
// {up, down, left, right} order §4.10 specifies.
func findComponents(g Grid) [][]cell {
	var visited [GridSize][GridSize]bool
	var components [][]cell

	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if visited[r][c] || g[r][c] >= CoveredCellMin {
				continue
			}
			comp := bfsComponent(g, &visited, r, c)
			components = append(components, comp)
		}
	}
	return components
}

func bfsComponent(g Grid, visited *[GridSize][GridSize]bool, startRow, startCol int) []cell {
	queue := []cell{{startRow, startCol}}
	visited[startRow][startCol] = true
	var comp []cell

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		comp = append(comp, cur)

		neighbors := [4]cell{
			{cur.row - 1, cur.col}, // up
			{cur.row + 1, cur.col}, // down
			{cur.row, cur.col - 1}, // left
			{cur.row, cur.col + 1}, // right
		}
		for _, n := range neighbors {
			if n.row < 0 || n.row >= GridSize || n.col < 0 || n.col >= GridSize {
				continue
			}
			if visited[n.row][n.col] || g[n.row][n.col] >= CoveredCellMin {
				continue
			}
			visited[n.row][n.col] = true
			queue = append(queue, n)
		}
	}
	return comp
}

func meanValue(g Grid, comp []cell) float64 {
	var sum float64
	for _, p := range comp {
		sum += g[p.row][p.col]
	}
	return sum / float64(len(comp))
}

func bboxOf(comp []cell) BBox {
	b := BBox{MinRow: comp[0].row, MaxRow: comp[0].row, MinCol: comp[0].col, MaxCol: comp[0].col}
	for _, p := range comp[1:] {
		if p.row < b.MinRow {
			b.MinRow = p.row
		}
		if p.row > b.MaxRow {
			b.MaxRow = p.row
		}
		if p.col < b.MinCol {
			b.MinCol = p.col
		}
		if p.col > b.MaxCol {
			b.MaxCol = p.col
		}
	}
	return b
}

func centroidOf(comp []cell) Point {
	var sumRow, sumCol float64
	for _, p := range comp {
		sumRow += float64(p.row)
		sumCol += float64(p.col)
	}
	n := float64(len(comp))
	return Point{Row: sumRow / n, Col: sumCol / n}
}

// principalDirection picks the bbox corner farthest from centroid, in
// the fixed evaluation order {(min,min),(min,max),(max,min),(max,max)}
// with ties broken toward the earliest-evaluated (smaller row, then
// smaller col) corner, then returns the unit vector from centroid to
// that corner.
func principalDirection(b BBox, centroid Point) Point {
	corners := [4]Point{
		{float64(b.MinRow), float64(b.MinCol)},
		{float64(b.MinRow), float64(b.MaxCol)},
		{float64(b.MaxRow), float64(b.MinCol)},
		{float64(b.MaxRow), float64(b.MaxCol)},
	}

	bestIdx := 0
	bestDist := -1.0
	for i, corner := range corners {
		dr := corner.Row - centroid.Row
		dc := corner.Col - centroid.Col
		dist := dr*dr + dc*dc
		if dist > bestDist {
			bestDist = dist
			bestIdx = i
		}
	}

	corner := corners[bestIdx]
	dr := corner.Row - centroid.Row
	dc := corner.Col - centroid.Col
	norm := math.Sqrt(dr*dr + dc*dc)
	if norm == 0 {
		return Point{0, 0}
	}
	return Point{Row: dr / norm, Col: dc / norm}
}

func regionID(b BBox, pixelCount int) string {
	var buf [20]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(b.MinRow))
	binary.BigEndian.PutUint32(buf[4:8], uint32(b.MaxRow))
	binary.BigEndian.PutUint32(buf[8:12], uint32(b.MinCol))
	binary.BigEndian.PutUint32(buf[12:16], uint32(b.MaxCol))
	binary.BigEndian.PutUint32(buf[16:20], uint32(pixelCount))
	sum := sha256.Sum256(buf[:])
	return "piz_region_" + hex.EncodeToString(sum[:8])
}

func buildRegion(comp []cell, localCoverage float64) Region {
	b := bboxOf(comp)
	centroid := centroidOf(comp)
	return Region{
		ID:                 regionID(b, len(comp)),
		PixelCount:         len(comp),
		AreaRatio:          float64(len(comp)) / float64(GridSize*GridSize),
		BBox:               b,
		Centroid:           centroid,
		PrincipalDirection: principalDirection(b, centroid),
		Severity:           clamp01(1 - localCoverage),
	}
}

func synthesizeFullGridRegion(globalCoverage float64) Region {
	b := BBox{MinRow: 0, MaxRow: GridSize - 1, MinCol: 0, MaxCol: GridSize - 1}
	centroid := Point{Row: float64(GridSize-1) / 2, Col: float64(GridSize-1) / 2}
	return Region{
		ID:                 regionID(b, GridSize*GridSize),
		PixelCount:         GridSize * GridSize,
		AreaRatio:          1.0,
		BBox:               b,
		Centroid:           centroid,
		PrincipalDirection: principalDirection(b, centroid),
		Severity:           clamp01(1 - globalCoverage),
	}
}

func sortRegions(regions []Region) {
	// Insertion sort: region counts are small (<= a few dozen), and this
	// keeps the comparator trivially auditable against §4.10's exact key
	// tuple without pulling in sort.Slice's closure indirection.
	for i := 1; i < len(regions); i++ {
		j := i
		for j > 0 && regionLess(regions[j], regions[j-1]) {
			regions[j], regions[j-1] = regions[j-1], regions[j]
			j--
		}
	}
}

func regionLess(a, b Region) bool {
	if a.BBox.MinRow != b.BBox.MinRow {
		return a.BBox.MinRow < b.BBox.MinRow
	}
	if a.BBox.MinCol != b.BBox.MinCol {
		return a.BBox.MinCol < b.BBox.MinCol
	}
	if a.BBox.MaxRow != b.BBox.MaxRow {
		return a.BBox.MaxRow < b.BBox.MaxRow
	}
	if a.BBox.MaxCol != b.BBox.MaxCol {
		return a.BBox.MaxCol < b.BBox.MaxCol
	}
	return a.ID < b.ID
}

func computeRecommendation(maxSeverity float64, previous Recommendation) Recommendation {
	threshold := 0.5
	if previous == RecommendationRecapture {
		threshold -= 0.05
	}
	if maxSeverity >= threshold {
		return RecommendationRecapture
	}
	return RecommendationAccept
}

func computePriority(maxSeverity float64) Priority {
	switch {
	case maxSeverity >= 0.7:
		return PriorityHigh
	case maxSeverity >= 0.4:
		return PriorityMedium
	default:
		return PriorityLow
	}
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
