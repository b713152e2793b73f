package eventbus

import (
	"sync/atomic"

	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
	"github.com/randalmurphal/eventbus/pkg/eventbus/statsstore"
)

// Stats holds live usage counters for a Bus. All methods are safe for
// concurrent use; values change as the bus is used.
type Stats struct {
	sends      atomic.Int64
	asks       atomic.Int64
	broadcasts atomic.Int64
	on         atomic.Int64

	busType  Type
	logLevel observability.Level
}

// Sends returns the number of Send calls.
func (s *Stats) Sends() int64 { return s.sends.Load() }

// Asks returns the number of Ask calls.
func (s *Stats) Asks() int64 { return s.asks.Load() }

// Broadcasts returns the number of Broadcast calls.
func (s *Stats) Broadcasts() int64 { return s.broadcasts.Load() }

// On returns the number of registrations not yet removed by their remover.
func (s *Stats) On() int64 { return s.on.Load() }

// Type returns the bus's registry type.
func (s *Stats) Type() Type { return s.busType }

// LogLevel returns the log level the bus was created with.
func (s *Stats) LogLevel() observability.Level { return s.logLevel }

// Snapshot copies the current values. Name and TakenAt are left empty.
func (s *Stats) Snapshot() statsstore.Snapshot {
	return statsstore.Snapshot{
		Type:       string(s.busType),
		LogLevel:   s.logLevel.String(),
		Sends:      s.Sends(),
		Asks:       s.Asks(),
		Broadcasts: s.Broadcasts(),
		On:         s.On(),
	}
}

func (s *Stats) counters() observability.Counters {
	return observability.Counters{
		Sends:      s.Sends(),
		Asks:       s.Asks(),
		Broadcasts: s.Broadcasts(),
		Observers:  s.On(),
	}
}
