package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	buserr "github.com/randalmurphal/eventbus/pkg/eventbus/errors"
)

// MetricsRecorder records event bus metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordSend records a send on key.
	RecordSend(ctx context.Context, key string, err error)

	// RecordAsk records a completed ask with its latency and response count.
	RecordAsk(ctx context.Context, key string, duration time.Duration, responses int, err error)

	// RecordBroadcast records a broadcast.
	RecordBroadcast(ctx context.Context, err error)

	// RecordObservers adjusts the live observer count for key.
	RecordObservers(ctx context.Context, key string, delta int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	sends        metric.Int64Counter
	asks         metric.Int64Counter
	broadcasts   metric.Int64Counter
	observers    metric.Int64UpDownCounter
	askLatency   metric.Float64Histogram
	askResponses metric.Int64Histogram
	errors       metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("eventbus")

	sends, err := meter.Int64Counter("eventbus.sends",
		metric.WithDescription("Number of send operations"),
	)
	if err != nil {
		return nil, err
	}

	asks, err := meter.Int64Counter("eventbus.asks",
		metric.WithDescription("Number of ask operations"),
	)
	if err != nil {
		return nil, err
	}

	broadcasts, err := meter.Int64Counter("eventbus.broadcasts",
		metric.WithDescription("Number of broadcast operations"),
	)
	if err != nil {
		return nil, err
	}

	observers, err := meter.Int64UpDownCounter("eventbus.observers",
		metric.WithDescription("Number of registered observers"),
	)
	if err != nil {
		return nil, err
	}

	askLatency, err := meter.Float64Histogram("eventbus.ask.latency_ms",
		metric.WithDescription("Ask latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	askResponses, err := meter.Int64Histogram("eventbus.ask.responses",
		metric.WithDescription("Responses collected per ask"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter("eventbus.errors",
		metric.WithDescription("Number of failed bus operations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		sends:        sends,
		asks:         asks,
		broadcasts:   broadcasts,
		observers:    observers,
		askLatency:   askLatency,
		askResponses: askResponses,
		errors:       errCounter,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordSend records a send.
func (m *otelMetrics) RecordSend(ctx context.Context, key string, err error) {
	attrs := metric.WithAttributes(attribute.String("key", key))
	m.sends.Add(ctx, 1, attrs)
	m.recordError(ctx, "send", err)
}

// RecordAsk records an ask.
func (m *otelMetrics) RecordAsk(ctx context.Context, key string, duration time.Duration, responses int, err error) {
	attrs := metric.WithAttributes(attribute.String("key", key))
	m.asks.Add(ctx, 1, attrs)
	m.askLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	m.askResponses.Record(ctx, int64(responses), attrs)
	m.recordError(ctx, "ask", err)
}

// RecordBroadcast records a broadcast.
func (m *otelMetrics) RecordBroadcast(ctx context.Context, err error) {
	m.broadcasts.Add(ctx, 1)
	m.recordError(ctx, "broadcast", err)
}

// RecordObservers adjusts the observer gauge.
func (m *otelMetrics) RecordObservers(ctx context.Context, key string, delta int64) {
	m.observers.Add(ctx, delta, metric.WithAttributes(attribute.String("key", key)))
}

func (m *otelMetrics) recordError(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("category", buserr.Categorize(err).String()),
	))
}
