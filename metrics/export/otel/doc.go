// Package otel provides OpenTelemetry metric exporter bindings for
// authguard counters.
//
// [NewExporter] registers an Int64ObservableCounter per engine metric plus
// one for dropped audit events. A single callback reads
// [authguard.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate engine state.
package otel
