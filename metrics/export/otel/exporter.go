package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	authkit "github.com/greenledger/authkit"
	"github.com/greenledger/authkit/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() authkit.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         authkit.MetricID
	instrument metric.Int64ObservableCounter
}

// OTelExporter mirrors controller metrics into OTel instruments until
// closed. Request latency is the controller's only histogram, so its bucket
// gauges are fields rather than a per-histogram table.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters       []observedCounter
	latencyBuckets [8]metric.Int64ObservableGauge
	latencyCount   metric.Int64ObservableGauge
	auditDropped   metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments for a controller's metrics.
func NewOTelExporter(meter metric.Meter, controller *authkit.Controller) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, controller)
}

// NewOTelExporterFromSource registers instruments against any snapshot
// source, mainly for tests.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:   source,
		counters: make([]observedCounter, 0, len(internaldefs.CounterDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(exporter.latencyBuckets)+2)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	latency := internaldefs.LatencyHistogram
	for i := range exporter.latencyBuckets {
		name := latency.Name + "_bucket_le_" + internaldefs.HistogramBoundSuffix[i]
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative latency bucket count."))
		if err != nil {
			return nil, fmt.Errorf("create latency bucket gauge %s: %w", name, err)
		}
		exporter.latencyBuckets[i] = ins
		observables = append(observables, ins)
	}
	latencyCount, err := meter.Int64ObservableGauge(latency.Name+"_count", metric.WithDescription("Latency sample count."))
	if err != nil {
		return nil, fmt.Errorf("create latency count gauge: %w", err)
	}
	exporter.latencyCount = latencyCount
	observables = append(observables, latencyCount)

	auditDropped, err := meter.Int64ObservableCounter(
		"authkit_audit_dropped_total",
		metric.WithDescription("Audit events dropped by dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(exporter.collect, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) collect(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}

	cumulative := internaldefs.CumulativeBuckets(
		internaldefs.NormalizeBuckets(snapshot.Histograms[internaldefs.LatencyHistogram.ID]),
	)
	for i, bucket := range e.latencyBuckets {
		observer.ObserveInt64(bucket, int64(cumulative[i]))
	}
	observer.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]))

	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
