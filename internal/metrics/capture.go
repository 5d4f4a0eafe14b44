// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics provides Prometheus metrics for the capture core:
// write-ahead log health, quality-gate scoring, and PIZ detector activity.
// No cardinality explosion: labels are bounded enums (result, outcome,
// field, recommendation, priority), never patch IDs, entry IDs, or frame
// indices.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	// WALUncommittedEntries tracks the number of appended-but-not-yet-committed
	// WAL entries, the quantity a recovery pass must reconcile.
	WALUncommittedEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "capturecore_wal_uncommitted_entries",
		Help: "Current number of WAL entries appended but not yet committed.",
	})

	// WALAppendTotal counts WAL append operations by result.
	WALAppendTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capturecore_wal_append_total",
		Help: "Total number of WAL append operations, by result.",
	}, []string{"result"})

	// WALCommitTotal counts WAL commit operations by result.
	WALCommitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capturecore_wal_commit_total",
		Help: "Total number of WAL commit operations, by result.",
	}, []string{"result"})

	// WALRecoveryTotal counts recovery passes by outcome (success/failed).
	WALRecoveryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capturecore_wal_recovery_total",
		Help: "Total number of WAL recovery passes, by outcome.",
	}, []string{"outcome"})

	// GateQualityScore observes the quantized quality score produced by the
	// gate's Score function, bucketed across the full [0,1] range.
	GateQualityScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "capturecore_gate_quality_score",
		Help:    "Distribution of quality gate scores in [0,1].",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})

	// GateValidationFailureTotal counts gate input validation failures by field.
	GateValidationFailureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capturecore_gate_validation_failure_total",
		Help: "Total number of gate input validation failures, by field.",
	}, []string{"field"})

	// PIZRegionsDetected tracks the number of regions in the most recent
	// PIZ detector pass.
	PIZRegionsDetected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "capturecore_piz_regions_detected",
		Help: "Number of regions found in the most recent PIZ detector pass.",
	})

	// PIZRecommendationTotal counts PIZ detector recommendations by value and priority.
	PIZRecommendationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capturecore_piz_recommendation_total",
		Help: "Total number of PIZ detector recommendations, by recommendation and priority.",
	}, []string{"recommendation", "priority"})
)

// RecordWALAppend increments the WAL append counter and updates the
// uncommitted gauge to the given count.
func RecordWALAppend(result string, uncommittedCount float64) {
	WALAppendTotal.WithLabelValues(result).Inc()
	WALUncommittedEntries.Set(uncommittedCount)
}

// RecordWALCommit increments the WAL commit counter and updates the
// uncommitted gauge to the given count.
func RecordWALCommit(result string, uncommittedCount float64) {
	WALCommitTotal.WithLabelValues(result).Inc()
	WALUncommittedEntries.Set(uncommittedCount)
}

// RecordWALRecovery increments the recovery counter by outcome.
func RecordWALRecovery(outcome string) {
	WALRecoveryTotal.WithLabelValues(outcome).Inc()
}

// RecordGateScore observes a quality score in the score histogram.
// Validation failures are counted separately by
// RecordGateValidationFailure.
func RecordGateScore(quality float64) {
	GateQualityScore.Observe(quality)
}

// RecordGateValidationFailure increments the validation-failure counter
// for field.
func RecordGateValidationFailure(field string) {
	GateValidationFailureTotal.WithLabelValues(field).Inc()
}

// RecordPIZDetection updates the region-count gauge and the
// recommendation counter for a detector pass.
func RecordPIZDetection(regionCount int, recommendation, priority string) {
	PIZRegionsDetected.Set(float64(regionCount))
	PIZRecommendationTotal.WithLabelValues(recommendation, priority).Inc()
}

// GetWALUncommittedEntries returns the current gauge value (for tests).
func GetWALUncommittedEntries() float64 {
	var m dto.Metric
	if err := WALUncommittedEntries.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
