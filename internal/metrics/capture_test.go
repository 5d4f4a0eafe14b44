// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordWALAppendUpdatesUncommittedGauge(t *testing.T) {
	RecordWALAppend("success", 3)
	require.Equal(t, 3.0, GetWALUncommittedEntries())

	RecordWALCommit("success", 2)
	require.Equal(t, 2.0, GetWALUncommittedEntries())
}

func TestRecordPIZDetectionDoesNotPanic(t *testing.T) {
	RecordPIZDetection(2, "recapture", "high")
	RecordPIZDetection(0, "accept", "low")
}

func TestRecordGateScoreDoesNotPanic(t *testing.T) {
	RecordGateScore(0.42)
	RecordGateValidationFailure("sharpness")
}
