package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/partchain"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Contract metrics
	InvocationsTotal   metric.Int64Counter
	InvocationDuration metric.Float64Histogram

	// Ledger metrics
	EventsEmittedTotal metric.Int64Counter
	TxRetriesTotal     metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.InvocationsTotal, _ = meter.Int64Counter(
		"partchain.invocations.total",
		metric.WithDescription("Total number of contract invocations by function and result kind"),
		metric.WithUnit("{invocation}"),
	)

	m.InvocationDuration, _ = meter.Float64Histogram(
		"partchain.invocation.duration",
		metric.WithDescription("Duration of contract invocations"),
		metric.WithUnit("ms"),
	)

	m.EventsEmittedTotal, _ = meter.Int64Counter(
		"partchain.events.emitted.total",
		metric.WithDescription("Total number of ledger events emitted by committed invocations"),
		metric.WithUnit("{event}"),
	)

	m.TxRetriesTotal, _ = meter.Int64Counter(
		"partchain.tx.retries.total",
		metric.WithDescription("Total number of ledger transactions retried after a serialization failure"),
		metric.WithUnit("{retry}"),
	)

	return m
}
