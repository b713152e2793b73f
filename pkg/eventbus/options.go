package eventbus

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/randalmurphal/eventbus/pkg/eventbus/host"
	"github.com/randalmurphal/eventbus/pkg/eventbus/native"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
	"github.com/randalmurphal/eventbus/pkg/eventbus/statsstore"
)

// Type selects the registry behind a Bus.
type Type string

// Supported registry types.
const (
	// TypeNative dispatches through a host event target.
	TypeNative Type = "NATIVE"
	// TypeInternal dispatches through an in-process observer map.
	TypeInternal Type = "INTERNAL"
)

// busConfig holds construction settings.
type busConfig struct {
	busType    Type
	logLevel   observability.Level
	target     host.EventTarget
	askTimeout time.Duration
	clock      clock.Clock
	metrics    bool
	tracing    bool
	store      statsstore.Store
	statsName  string
	ownsStore  bool
}

func defaultBusConfig() busConfig {
	return busConfig{
		busType:    TypeNative,
		logLevel:   observability.DefaultLevel,
		askTimeout: native.DefaultAskTimeout,
		clock:      clock.New(),
		statsName:  "default",
	}
}

// Option configures a Bus.
type Option func(*busConfig)

// WithType selects the registry. Default: TypeNative.
func WithType(t Type) Option {
	return func(c *busConfig) {
		c.busType = t
	}
}

// WithLogLevel sets the process-wide log threshold. Default: LevelError.
func WithLogLevel(level observability.Level) Option {
	return func(c *busConfig) {
		c.logLevel = level
	}
}

// WithTarget sets the host event target for TypeNative.
// Default: host.Root().
func WithTarget(target host.EventTarget) Option {
	return func(c *busConfig) {
		c.target = target
	}
}

// WithAskTimeout sets the TypeNative ask deadline. Default: 1s.
func WithAskTimeout(d time.Duration) Option {
	return func(c *busConfig) {
		if d > 0 {
			c.askTimeout = d
		}
	}
}

// WithClock sets the clock used for ask deadlines and snapshot timestamps.
func WithClock(clk clock.Clock) Option {
	return func(c *busConfig) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithMetrics enables OpenTelemetry metrics through the global meter provider.
func WithMetrics(enabled bool) Option {
	return func(c *busConfig) {
		c.metrics = enabled
	}
}

// WithTracing enables OpenTelemetry spans around Send, Ask and Broadcast.
func WithTracing(enabled bool) Option {
	return func(c *busConfig) {
		c.tracing = enabled
	}
}

// WithStatsStore sets where PersistStats saves snapshots, labelled name.
// The caller keeps ownership of store; Close does not close it.
func WithStatsStore(store statsstore.Store, name string) Option {
	return func(c *busConfig) {
		c.store = store
		c.ownsStore = false
		if name != "" {
			c.statsName = name
		}
	}
}

// withOwnedStatsStore is WithStatsStore for stores the bus opened itself.
func withOwnedStatsStore(store statsstore.Store, name string) Option {
	return func(c *busConfig) {
		WithStatsStore(store, name)(c)
		c.ownsStore = true
	}
}
