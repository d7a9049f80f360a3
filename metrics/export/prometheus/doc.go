// Package prometheus renders core metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] accepts an [eventra.Core] and exposes an
// [net/http.Handler] that renders every counter and histogram the core
// tracks. Counter names are prefixed eventra_*_total; the single histogram
// is eventra_authenticate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the
//     Handler where they want it.
//   - Mutate core state.
package prometheus
