// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package piz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Profile selects which fields a report carries. DecisionOnly strips
// every explainability field (bbox, centroid, principal direction,
// severity) down to the bare accept/recapture decision; decoding a
// DecisionOnly document that contains any of those fields is an error,
// not a silent accept.
type Profile string

const (
	ProfileDecisionOnly       Profile = "DecisionOnly"
	ProfileFullExplainability Profile = "FullExplainability"
)

// SchemaVersion is this package's schema version. Decode enforces exact
// equality on the major component; a minor-version mismatch is
// tolerated per the open/closed rule below.
const SchemaVersion = "1.0.0"

// quantizeStep is the SSOT precision every emitted float is rounded to,
// so two platforms computing the same report agree bit-for-bit even
// after floating-point summation order differences upstream.
const quantizeStep = 1e-6

func quantize(v float64) float64 {
	scaled := v / quantizeStep
	var rounded float64
	if scaled >= 0 {
		rounded = math.Floor(scaled + 0.5)
	} else {
		rounded = math.Ceil(scaled - 0.5)
	}
	out := rounded * quantizeStep
	if out == 0 {
		return 0 // normalizes negative zero to positive zero
	}
	return out
}

type wireBBox struct {
	MinRow int `json:"min_row"`
	MaxRow int `json:"max_row"`
	MinCol int `json:"min_col"`
	MaxCol int `json:"max_col"`
}

type wirePoint struct {
	Row float64 `json:"row"`
	Col float64 `json:"col"`
}

// wireRegionFull carries every field, used for FullExplainability.
type wireRegionFull struct {
	ID                 string    `json:"id"`
	PixelCount         int       `json:"pixel_count"`
	AreaRatio          float64   `json:"area_ratio"`
	BBox               wireBBox  `json:"bbox"`
	Centroid           wirePoint `json:"centroid"`
	PrincipalDirection wirePoint `json:"principal_direction"`
	Severity           float64   `json:"severity"`
}

// wireRegionDecision carries only the fields a DecisionOnly consumer is
// allowed to see. Its lack of the explainability fields is what makes
// DisallowUnknownFields reject a FullExplainability document decoded as
// DecisionOnly.
type wireRegionDecision struct {
	ID         string  `json:"id"`
	PixelCount int     `json:"pixel_count"`
	AreaRatio  float64 `json:"area_ratio"`
}

type wireReport struct {
	SchemaVersion  string          `json:"schema_version"`
	Profile        Profile         `json:"profile"`
	GlobalTrigger  bool            `json:"global_trigger"`
	GlobalCoverage float64         `json:"global_coverage"`
	Regions        json.RawMessage `json:"regions"`
	Recommendation Recommendation  `json:"recommendation"`
	Priority       Priority        `json:"priority"`
	TimestampNS    int64           `json:"timestamp_ns,omitempty"`
}

// Report is the decoded, in-memory form of a PIZ detector result.
// TimestampNS is populated only for Recommendation ==
// RecommendationInsufficientData.
type Report struct {
	Profile        Profile
	GlobalTrigger  bool
	GlobalCoverage float64
	Regions        []Region
	Recommendation Recommendation
	Priority       Priority
	TimestampNS    int64
}

// Encode serializes result under the given profile, quantizing every
// float and omitting explainability fields entirely for DecisionOnly
// rather than nulling them out.
func Encode(result Result, profile Profile) ([]byte, error) {
	wr := wireReport{
		SchemaVersion:  SchemaVersion,
		Profile:        profile,
		GlobalTrigger:  result.GlobalTrigger,
		GlobalCoverage: quantize(result.GlobalCoverage),
		Recommendation: result.Recommendation,
		Priority:       result.Priority,
		TimestampNS:    result.TimestampNS,
	}

	var regionsJSON []byte
	var err error
	if profile == ProfileFullExplainability {
		full := make([]wireRegionFull, len(result.Regions))
		for i, r := range result.Regions {
			full[i] = wireRegionFull{
				ID:         r.ID,
				PixelCount: r.PixelCount,
				AreaRatio:  quantize(r.AreaRatio),
				BBox:       wireBBox{MinRow: r.BBox.MinRow, MaxRow: r.BBox.MaxRow, MinCol: r.BBox.MinCol, MaxCol: r.BBox.MaxCol},
				Centroid:   wirePoint{Row: quantize(r.Centroid.Row), Col: quantize(r.Centroid.Col)},
				PrincipalDirection: wirePoint{Row: quantize(r.PrincipalDirection.Row), Col: quantize(r.PrincipalDirection.Col)},
				Severity:   quantize(r.Severity),
			}
		}
		regionsJSON, err = json.Marshal(full)
	} else {
		decision := make([]wireRegionDecision, len(result.Regions))
		for i, r := range result.Regions {
			decision[i] = wireRegionDecision{ID: r.ID, PixelCount: r.PixelCount, AreaRatio: quantize(r.AreaRatio)}
		}
		regionsJSON, err = json.Marshal(decision)
	}
	if err != nil {
		return nil, err
	}
	wr.Regions = regionsJSON

	return json.Marshal(wr)
}

// Decode parses a report document. The document's schema major version
// must equal this package's; a newer minor version is tolerated with
// unknown top-level fields ignored (open-set), while an equal-or-older
// minor version is decoded closed-world (unknown fields fail). A
// DecisionOnly document containing explainability fields fails to
// decode, never silently drops them.
func Decode(data []byte) (Report, error) {
	var probe struct {
		SchemaVersion string  `json:"schema_version"`
		Profile       Profile `json:"profile"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Report{}, fmt.Errorf("piz: decode: %w", err)
	}

	ourMajor, ourMinor, err := parseSemverMajorMinor(SchemaVersion)
	if err != nil {
		return Report{}, err
	}
	docMajor, docMinor, err := parseSemverMajorMinor(probe.SchemaVersion)
	if err != nil {
		return Report{}, fmt.Errorf("piz: invalid schema_version %q", probe.SchemaVersion)
	}
	if docMajor != ourMajor {
		return Report{}, fmt.Errorf("piz: unsupported schema major version %d", docMajor)
	}

	strict := docMinor <= ourMinor

	var wr wireReport
	dec := json.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&wr); err != nil {
		return Report{}, fmt.Errorf("piz: decode: %w", err)
	}

	regions, err := decodeRegions(wr.Regions, wr.Profile, strict)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Profile:        wr.Profile,
		GlobalTrigger:  wr.GlobalTrigger,
		GlobalCoverage: wr.GlobalCoverage,
		Regions:        regions,
		Recommendation: wr.Recommendation,
		Priority:       wr.Priority,
		TimestampNS:    wr.TimestampNS,
	}, nil
}

func decodeRegions(raw json.RawMessage, profile Profile, strict bool) ([]Region, error) {
	if profile == ProfileDecisionOnly {
		var decision []wireRegionDecision
		dec := json.NewDecoder(bytes.NewReader(raw))
		if strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&decision); err != nil {
			return nil, fmt.Errorf("piz: DecisionOnly report carries explainability fields: %w", err)
		}
		out := make([]Region, len(decision))
		for i, d := range decision {
			out[i] = Region{ID: d.ID, PixelCount: d.PixelCount, AreaRatio: d.AreaRatio}
		}
		return out, nil
	}

	var full []wireRegionFull
	dec := json.NewDecoder(bytes.NewReader(raw))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&full); err != nil {
		return nil, fmt.Errorf("piz: decode regions: %w", err)
	}
	out := make([]Region, len(full))
	for i, f := range full {
		out[i] = Region{
			ID: f.ID, PixelCount: f.PixelCount, AreaRatio: f.AreaRatio,
			BBox:               BBox{MinRow: f.BBox.MinRow, MaxRow: f.BBox.MaxRow, MinCol: f.BBox.MinCol, MaxCol: f.BBox.MaxCol},
			Centroid:           Point{Row: f.Centroid.Row, Col: f.Centroid.Col},
			PrincipalDirection: Point{Row: f.PrincipalDirection.Row, Col: f.PrincipalDirection.Col},
			Severity:           f.Severity,
		}
	}
	return out, nil
}

func parseSemverMajorMinor(v string) (major, minor int, err error) {
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("piz: malformed schema version %q", v)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return major, minor, nil
}
