// Package host models a host environment's event target: named events,
// listener registration, and synchronous in-order dispatch.
//
// The native registry builds on EventTarget. Target is the in-process
// implementation and Root returns the process-wide instance, the way a
// browser exposes a single window object.
package host

// Event is a named occurrence delivered to listeners.
type Event interface {
	Type() string
}

// CustomEvent is an event carrying an arbitrary payload.
type CustomEvent struct {
	name   string
	Detail any
}

// NewCustomEvent creates an event named name with the given detail.
func NewCustomEvent(name string, detail any) *CustomEvent {
	return &CustomEvent{name: name, Detail: detail}
}

// Type returns the event name.
func (e *CustomEvent) Type() string {
	return e.name
}

type plainEvent struct {
	name string
}

func (e plainEvent) Type() string {
	return e.name
}

// NewEvent creates an event with no payload.
func NewEvent(name string) Event {
	return plainEvent{name: name}
}

// Listener is a registered event handler. Add and remove match on the
// *Listener pointer, so keep the handle returned by NewListener.
type Listener struct {
	fn func(Event) error
}

// NewListener wraps fn in a listener handle.
func NewListener(fn func(Event) error) *Listener {
	return &Listener{fn: fn}
}

// Handle invokes the listener.
func (l *Listener) Handle(evt Event) error {
	return l.fn(evt)
}
