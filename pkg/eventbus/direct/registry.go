// Package direct implements an in-process observer registry.
//
// Observers live in a key → ordered list mapping and are invoked
// synchronously by the calling goroutine. Nothing here depends on a host
// event system.
package direct

import (
	"context"
	"log/slog"
	"sync"

	buserr "github.com/randalmurphal/eventbus/pkg/eventbus/errors"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observer"
)

// Registry is the in-process observer registry. The zero value is not
// usable; create one with New.
type Registry struct {
	mu        sync.RWMutex
	observers map[string][]*observer.Observer
	keys      []string // first-registration order
	logger    *slog.Logger
}

var _ observer.Registry = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry's logger. Defaults to observability.Logger().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		observers: make(map[string][]*observer.Observer),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = observability.Logger()
	}
	return r
}

// On registers cb under key.
func (r *Registry) On(key string, cb observer.Callback) observer.RemoveFunc {
	obs := &observer.Observer{
		ID:       observer.NewID(key),
		Key:      key,
		Callback: cb,
	}

	r.mu.Lock()
	if _, ok := r.observers[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.observers[key] = append(r.observers[key], obs)
	total := len(r.observers[key])
	r.mu.Unlock()

	observability.LogRegister(r.logger, key, obs.ID, total)

	return func() bool {
		removed := r.remove(key, obs.ID)
		observability.LogRemove(r.logger, key, obs.ID, removed)
		return removed
	}
}

// remove drops the observer with id from key's list. Membership is checked
// against the live collection, so removers invalidated by Clear return false.
func (r *Registry) remove(key, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.observers[key]
	if !ok {
		return false
	}

	idx := -1
	for i, obs := range current {
		if obs.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	if len(current) == 1 {
		delete(r.observers, key)
		r.dropKey(key)
		return true
	}

	// Build a new slice so snapshots held by in-flight dispatches stay intact.
	next := make([]*observer.Observer, 0, len(current)-1)
	next = append(next, current[:idx]...)
	next = append(next, current[idx+1:]...)
	r.observers[key] = next
	return true
}

func (r *Registry) dropKey(key string) {
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			return
		}
	}
}

func (r *Registry) snapshot(key string) []*observer.Observer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.observers[key]
}

// Send invokes every observer of key with data, in registration order.
// The first callback error stops delivery and is returned as a DispatchError.
func (r *Registry) Send(key string, data any) error {
	observability.LogSend(r.logger, key)

	for _, obs := range r.snapshot(key) {
		if _, err := obs.Callback(data, key); err != nil {
			observability.LogDispatchError(r.logger, "send", key, err)
			return &buserr.DispatchError{Op: "send", Key: key, ObserverID: obs.ID, Err: err}
		}
	}
	return nil
}

// Ask invokes every observer of key and returns their truthy return values
// in registration order. If a callback fails, delivery stops: results
// gathered so far are returned without error, or the failure is returned as a
// DispatchError when there are none. Ask never waits, so ctx is only checked
// on entry.
func (r *Registry) Ask(ctx context.Context, key string, data any) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	observability.LogAsk(r.logger, key)
	elapsed := observability.TimedOperation()

	observers := r.snapshot(key)
	results := make([]any, 0, len(observers))
	if len(observers) == 0 {
		observability.LogNoObservers(r.logger, key)
		return results, nil
	}

	for _, obs := range observers {
		resp, err := obs.Callback(data, key)
		if err != nil {
			observability.LogDispatchError(r.logger, "ask", key, err)
			if len(results) > 0 {
				return results, nil
			}
			return nil, &buserr.DispatchError{Op: "ask", Key: key, ObserverID: obs.ID, Err: err}
		}
		if observer.Truthy(resp) {
			results = append(results, resp)
		}
	}

	observability.LogAskComplete(r.logger, key, len(results), elapsed())
	return results, nil
}

// Broadcast invokes every observer of every key with data and an empty key.
// Keys are visited in first-registration order.
func (r *Registry) Broadcast(data any) error {
	r.mu.RLock()
	var all []*observer.Observer
	for _, key := range r.keys {
		all = append(all, r.observers[key]...)
	}
	r.mu.RUnlock()

	observability.LogBroadcast(r.logger, len(all))

	for _, obs := range all {
		if _, err := obs.Callback(data, ""); err != nil {
			observability.LogDispatchError(r.logger, "broadcast", "", err)
			return &buserr.DispatchError{Op: "broadcast", ObserverID: obs.ID, Err: err}
		}
	}
	return nil
}

// Clear removes every observer. Removers returned earlier report false.
func (r *Registry) Clear() {
	r.mu.Lock()
	n := 0
	for _, list := range r.observers {
		n += len(list)
	}
	r.observers = make(map[string][]*observer.Observer)
	r.keys = nil
	r.mu.Unlock()

	observability.LogClear(r.logger, n)
}

// Len returns the number of registered observers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, list := range r.observers {
		n += len(list)
	}
	return n
}

// Keys returns the keys with at least one observer, in first-registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.keys...)
}
