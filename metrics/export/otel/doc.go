// Package otel exposes the controller's counters and histograms through
// OpenTelemetry metric instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per counter and an
// Int64ObservableGauge per histogram bucket. One callback reads
// [authkit.Controller.MetricsSnapshot] on each collection cycle.
//
// The package never owns the MeterProvider; callers supply the Meter.
package otel
