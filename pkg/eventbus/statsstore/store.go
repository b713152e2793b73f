// Package statsstore persists snapshots of bus statistics.
//
// Snapshots are grouped by name (one name per bus, typically the service
// name) and numbered in save order. MemoryStore suits tests; SQLiteStore
// survives restarts.
package statsstore

import (
	"context"
	"time"
)

// Snapshot is a point-in-time copy of a bus's counters.
type Snapshot struct {
	Name       string
	Sequence   int64
	Type       string
	LogLevel   string
	Sends      int64
	Asks       int64
	Broadcasts int64
	On         int64
	TakenAt    time.Time
}

// Store persists snapshots. Implementations must be safe for concurrent use.
type Store interface {
	// Save appends snap under snap.Name and returns it with its assigned
	// sequence. A zero TakenAt is set to the current time.
	Save(ctx context.Context, snap Snapshot) (Snapshot, error)

	// Latest returns the most recent snapshot for name.
	// Returns ErrNotFound if there is none.
	Latest(ctx context.Context, name string) (Snapshot, error)

	// List returns every snapshot for name, oldest first.
	// Returns an empty slice (not error) if there are none.
	List(ctx context.Context, name string) ([]Snapshot, error)

	// Delete removes every snapshot for name.
	Delete(ctx context.Context, name string) error

	// Close releases any resources.
	Close() error
}
