package statsstore

import (
	"context"
	"sync"
	"time"

	buserr "github.com/randalmurphal/eventbus/pkg/eventbus/errors"
)

// MemoryStore keeps snapshots in memory. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	byName map[string][]Snapshot
	seq    int64
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byName: make(map[string][]Snapshot),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, snap Snapshot) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Snapshot{}, buserr.ErrStoreClosed
	}

	m.seq++
	snap.Sequence = m.seq
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now().UTC()
	}
	m.byName[snap.Name] = append(m.byName[snap.Name], snap)
	return snap, nil
}

// Latest implements Store.
func (m *MemoryStore) Latest(ctx context.Context, name string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Snapshot{}, buserr.ErrStoreClosed
	}

	snaps := m.byName[name]
	if len(snaps) == 0 {
		return Snapshot{}, buserr.ErrNotFound
	}
	return snaps[len(snaps)-1], nil
}

// List implements Store.
func (m *MemoryStore) List(ctx context.Context, name string) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, buserr.ErrStoreClosed
	}

	out := make([]Snapshot, len(m.byName[name]))
	copy(out, m.byName[name])
	return out, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return buserr.ErrStoreClosed
	}
	delete(m.byName, name)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
