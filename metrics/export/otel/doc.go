// Package otel provides OpenTelemetry metric bindings for core counters
// and histograms.
//
// [NewOTelExporter] registers an Int64ObservableCounter per core counter
// and an Int64ObservableGauge per histogram bucket. A single callback
// reads [eventra.Core.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate core state.
package otel
