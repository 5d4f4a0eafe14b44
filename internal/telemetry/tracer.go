// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package telemetry provides OpenTelemetry tracing utilities for the
// capture core. Unlike a networked service, this module has no collector
// endpoint of its own to export spans to: callers embedding it into a
// larger service are expected to install their own TracerProvider via
// otel.SetTracerProvider before calling into this package, and Tracer
// simply resolves against whatever provider (or the no-op default) is
// currently installed.
package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a tracer for the given name, resolved against the
// currently installed global TracerProvider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
