// Package observability provides the optional OpenTelemetry metrics hook:
// counters for dispatched, delivered, dropped, and failed records. The
// hook is never installed implicitly; hosts attach it with
// Logger.SetObserver.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/croftbyte/go-fanlog/record"
)

const meterName = "fanlog"

// Metrics implements the logger's Observer interface on an otel meter.
type Metrics struct {
	dispatched metric.Int64Counter
	delivered  metric.Int64Counter
	dropped    metric.Int64Counter
	failed     metric.Int64Counter
}

// NewMetrics creates the observer on the given meter provider; a nil
// provider uses the global one.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	dispatched, err := meter.Int64Counter("fanlog.records.dispatched",
		metric.WithDescription("Records submitted to a logger"))
	if err != nil {
		return nil, err
	}
	delivered, err := meter.Int64Counter("fanlog.records.delivered",
		metric.WithDescription("Records a handler delivered"))
	if err != nil {
		return nil, err
	}
	dropped, err := meter.Int64Counter("fanlog.records.dropped",
		metric.WithDescription("Records a handler gated or swallowed"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("fanlog.handler.errors",
		metric.WithDescription("Handler invocations that raised"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		dispatched: dispatched,
		delivered:  delivered,
		dropped:    dropped,
		failed:     failed,
	}, nil
}

// Dispatched counts a record entering dispatch.
func (m *Metrics) Dispatched(level record.Level) {
	m.dispatched.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("level", level.String())))
}

// Delivered counts a successful handler delivery.
func (m *Metrics) Delivered(handlerKind string) {
	m.delivered.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("handler", handlerKind)))
}

// Dropped counts a gated or swallowed record.
func (m *Metrics) Dropped(handlerKind string) {
	m.dropped.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("handler", handlerKind)))
}

// Failed counts a handler fault.
func (m *Metrics) Failed(handlerKind string) {
	m.failed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("handler", handlerKind)))
}
