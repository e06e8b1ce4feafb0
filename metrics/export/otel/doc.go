// Package otel provides OpenTelemetry metric exporter bindings for
// courseauth counters.
//
// [NewExporter] registers an Int64ObservableCounter per courseauth metric
// plus one for dropped audit events. A single callback reads
// [courseauth.Service.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate service state.
package otel
