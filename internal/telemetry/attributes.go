// SPDX-License-Identifier: MIT

// Package telemetry provides OpenTelemetry span-attribute helpers for the
// capture core's deterministic pipeline stages.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the capture core.
const (
	// Artifact / manifest attributes
	ArtifactIDKey    = "artifact.id"
	ArtifactHashKey  = "artifact.hash"
	SchemaVersionKey = "artifact.schema_version"

	// Gate attributes
	GatePatchIDKey = "gate.patch_id"
	GateTierKey    = "gate.tier"
	GateQualityKey = "gate.quality"

	// WAL attributes
	WALEntryIDKey   = "wal.entry_id"
	WALCommittedKey = "wal.committed"

	// PIZ detector attributes
	PIZRegionCountKey    = "piz.region_count"
	PIZRecommendationKey = "piz.recommendation"
	PIZPriorityKey       = "piz.priority"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// ArtifactAttributes creates artifact/manifest span attributes.
func ArtifactAttributes(artifactID, artifactHash string, schemaVersion int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ArtifactIDKey, artifactID),
		attribute.String(ArtifactHashKey, artifactHash),
		attribute.Int(SchemaVersionKey, schemaVersion),
	}
}

// GateAttributes creates quality-gate span attributes.
func GateAttributes(patchID, tier string, quality float64) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if patchID != "" {
		attrs = append(attrs, attribute.String(GatePatchIDKey, patchID))
	}
	if tier != "" {
		attrs = append(attrs, attribute.String(GateTierKey, tier))
	}
	attrs = append(attrs, attribute.Float64(GateQualityKey, quality))
	return attrs
}

// WALAttributes creates write-ahead-log span attributes.
func WALAttributes(entryID uint64, committed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(WALEntryIDKey, int64(entryID)),
		attribute.Bool(WALCommittedKey, committed),
	}
}

// PIZAttributes creates PIZ detector span attributes.
func PIZAttributes(regionCount int, recommendation, priority string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(PIZRegionCountKey, regionCount),
		attribute.String(PIZRecommendationKey, recommendation),
		attribute.String(PIZPriorityKey, priority),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
