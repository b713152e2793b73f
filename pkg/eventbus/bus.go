package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"

	"github.com/randalmurphal/eventbus/pkg/eventbus/direct"
	buserr "github.com/randalmurphal/eventbus/pkg/eventbus/errors"
	"github.com/randalmurphal/eventbus/pkg/eventbus/native"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observer"
	"github.com/randalmurphal/eventbus/pkg/eventbus/statsstore"
)

// Callback handles an event; see observer.Callback.
type Callback = observer.Callback

// RemoveFunc unregisters an observer; see observer.RemoveFunc.
type RemoveFunc = observer.RemoveFunc

// Bus is the public event bus. It wraps one registry and tracks Stats.
// A Bus is safe for concurrent use.
type Bus struct {
	registry observer.Registry
	stats    *Stats
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	clock    clock.Clock
	logger   *slog.Logger

	store     statsstore.Store
	statsName string
	ownsStore bool

	closeOnce sync.Once
	closeErr  error
}

// New creates a bus. It fails with a ConfigurationError for an unknown
// type, an invalid log level, or a native bus without a host target.
// New also sets the process-wide log level.
func New(opts ...Option) (*Bus, error) {
	cfg := defaultBusConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if !cfg.logLevel.Valid() {
		return nil, &buserr.ConfigurationError{
			Field: "log_level",
			Value: cfg.logLevel.String(),
			Err:   buserr.ErrInvalidLogLevel,
		}
	}
	observability.SetLevel(cfg.logLevel)
	logger := observability.Logger()

	var registry observer.Registry
	switch cfg.busType {
	case TypeInternal:
		registry = direct.New(direct.WithLogger(logger))
	case TypeNative:
		r, err := native.New(
			native.WithTarget(cfg.target),
			native.WithAskTimeout(cfg.askTimeout),
			native.WithClock(cfg.clock),
			native.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		registry = r
	default:
		return nil, &buserr.ConfigurationError{
			Field: "type",
			Value: string(cfg.busType),
			Err:   buserr.ErrUnknownType,
		}
	}

	b := &Bus{
		registry:  registry,
		stats:     &Stats{busType: cfg.busType, logLevel: cfg.logLevel},
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
		clock:     cfg.clock,
		logger:    logger,
		store:     cfg.store,
		statsName: cfg.statsName,
		ownsStore: cfg.ownsStore,
	}
	if cfg.metrics {
		b.metrics = observability.NewMetricsRecorder()
	}
	if cfg.tracing {
		b.spans = observability.NewSpanManager()
	}

	logger.Info("event bus created",
		slog.String("type", string(cfg.busType)),
		slog.String("log_level", cfg.logLevel.String()),
	)
	return b, nil
}

// On registers cb under key and returns its remover.
func (b *Bus) On(key string, cb Callback) RemoveFunc {
	b.stats.on.Add(1)
	b.metrics.RecordObservers(context.Background(), key, 1)

	remove := b.registry.On(key, cb)
	return func() bool {
		if !remove() {
			return false
		}
		b.stats.on.Add(-1)
		b.metrics.RecordObservers(context.Background(), key, -1)
		return true
	}
}

// Send delivers data to the observers of key.
func (b *Bus) Send(key string, data any) error {
	b.stats.sends.Add(1)

	ctx, span := b.spans.StartDispatchSpan(context.Background(), "send", key)
	err := b.registry.Send(key, data)

	b.spans.EndSpanWithError(span, err)
	b.metrics.RecordSend(ctx, key, err)
	return err
}

// Ask delivers data to the observers of key and returns their replies.
func (b *Bus) Ask(ctx context.Context, key string, data any) ([]any, error) {
	b.stats.asks.Add(1)

	ctx, span := b.spans.StartAskSpan(ctx, string(b.stats.busType), key)
	start := time.Now()

	results, err := b.registry.Ask(ctx, key, data)

	b.spans.AddSpanEvent(ctx, "responses", attribute.Int("count", len(results)))
	b.spans.EndSpanWithError(span, err)
	b.metrics.RecordAsk(ctx, key, time.Since(start), len(results), err)
	return results, err
}

// Broadcast delivers data to every observer regardless of key.
func (b *Bus) Broadcast(data any) error {
	b.stats.broadcasts.Add(1)

	ctx, span := b.spans.StartDispatchSpan(context.Background(), "broadcast", "")
	err := b.registry.Broadcast(data)

	b.spans.EndSpanWithError(span, err)
	b.metrics.RecordBroadcast(ctx, err)
	return err
}

// Clear removes every observer. Counters are not reset.
func (b *Bus) Clear() {
	b.registry.Clear()
}

// Stats returns the bus's live counters.
func (b *Bus) Stats() *Stats {
	return b.stats
}

// PersistStats saves a snapshot of the counters to the configured store.
func (b *Bus) PersistStats(ctx context.Context) (statsstore.Snapshot, error) {
	if b.store == nil {
		return statsstore.Snapshot{}, buserr.ErrNoStatsStore
	}

	snap := b.stats.Snapshot()
	snap.Name = b.statsName
	snap.TakenAt = b.clock.Now().UTC()

	saved, err := b.store.Save(ctx, snap)
	if err != nil {
		b.logger.Error("persisting stats failed", slog.String("error", err.Error()))
		return statsstore.Snapshot{}, err
	}
	return saved, nil
}

// Close clears every observer and closes a stats store opened by
// FromSettings. It is safe to call more than once.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		b.registry.Clear()
		if b.ownsStore && b.store != nil {
			b.closeErr = multierr.Append(b.closeErr, b.store.Close())
		}
	})
	return b.closeErr
}
