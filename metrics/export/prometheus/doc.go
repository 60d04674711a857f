// Package prometheus renders the controller's counters and histograms in
// Prometheus text exposition format.
//
// The exporter is a passive reader: [PrometheusExporter.Handler] serves a
// fresh snapshot on every scrape and never mutates controller state.
package prometheus
