package host

import (
	"sync"

	"go.uber.org/multierr"
)

// EventTarget accepts listeners and dispatches events to them.
type EventTarget interface {
	AddEventListener(name string, l *Listener)
	RemoveEventListener(name string, l *Listener)
	DispatchEvent(evt Event) error
}

// Target is an in-process EventTarget. It is safe for concurrent use.
//
// DispatchEvent calls listeners synchronously, in registration order, over a
// snapshot of the listeners present when dispatch began. A failing listener
// does not stop the others. Listeners report their own failures; the target
// only collects them.
type Target struct {
	mu        sync.RWMutex
	listeners map[string][]*Listener
}

// NewTarget creates an empty target.
func NewTarget() *Target {
	return &Target{
		listeners: make(map[string][]*Listener),
	}
}

// AddEventListener registers l for events named name.
// Adding a listener that is already registered for name does nothing.
func (t *Target) AddEventListener(name string, l *Listener) {
	if l == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, existing := range t.listeners[name] {
		if existing == l {
			return
		}
	}
	t.listeners[name] = append(t.listeners[name], l)
}

// RemoveEventListener unregisters l from events named name.
func (t *Target) RemoveEventListener(name string, l *Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.listeners[name]
	for i, existing := range current {
		if existing != l {
			continue
		}
		next := make([]*Listener, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		if len(next) == 0 {
			delete(t.listeners, name)
		} else {
			t.listeners[name] = next
		}
		return
	}
}

// DispatchEvent delivers evt to the listeners registered for evt.Type().
// Listener errors are returned combined.
func (t *Target) DispatchEvent(evt Event) error {
	t.mu.RLock()
	snapshot := t.listeners[evt.Type()]
	t.mu.RUnlock()

	var errs error
	for _, l := range snapshot {
		if err := l.Handle(evt); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// ListenerCount returns the number of listeners registered for name.
func (t *Target) ListenerCount(name string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.listeners[name])
}

// Names returns the event names that currently have listeners.
func (t *Target) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.listeners))
	for name := range t.listeners {
		names = append(names, name)
	}
	return names
}

var (
	rootMu  sync.Mutex
	root    EventTarget
	rootSet bool
)

// Root returns the process-wide event target, creating it on first use.
// It returns nil after SetRoot(nil).
func Root() EventTarget {
	rootMu.Lock()
	defer rootMu.Unlock()

	if !rootSet {
		root = NewTarget()
		rootSet = true
	}
	return root
}

// SetRoot replaces the process-wide event target. Passing nil simulates an
// environment with no host event target.
func SetRoot(t EventTarget) {
	rootMu.Lock()
	defer rootMu.Unlock()

	root = t
	rootSet = true
}
