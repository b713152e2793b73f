// Package native implements an observer registry on top of a host event
// target.
//
// Each key maps to the host event "eventbus:<key>". Every observer also
// listens on the shared "eventbus:broadcast:global" event, so a single
// dispatch reaches all of them. Storage and dispatch order are the target's.
package native

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	buserr "github.com/randalmurphal/eventbus/pkg/eventbus/errors"
	"github.com/randalmurphal/eventbus/pkg/eventbus/host"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observer"
)

// Host event names.
const (
	EventPrefix    = "eventbus:"
	BroadcastEvent = EventPrefix + "broadcast:global"
	ResponsePrefix = EventPrefix + "response:"
)

// DefaultAskTimeout bounds how long Ask waits for dispatch to finish.
const DefaultAskTimeout = time.Second

// EventName returns the host event name for key.
func EventName(key string) string {
	return EventPrefix + key
}

// askRequest is the detail of an ask dispatch. Replies are dispatched on ResponseKey.
type askRequest struct {
	Data        any
	ResponseKey string
}

// broadcastEnvelope is the detail of a broadcast dispatch.
type broadcastEnvelope struct {
	Data any
}

type registration struct {
	id       string
	key      string
	onKey    *host.Listener
	onGlobal *host.Listener
}

// Registry is an observer registry backed by a host.EventTarget.
type Registry struct {
	target  host.EventTarget
	timeout time.Duration
	clock   clock.Clock
	logger  *slog.Logger

	mu            sync.Mutex
	registrations map[string]*registration
}

var _ observer.Registry = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithTarget attaches the registry to target instead of host.Root().
func WithTarget(target host.EventTarget) Option {
	return func(r *Registry) {
		r.target = target
	}
}

// WithAskTimeout sets the Ask deadline. Non-positive values keep the default.
func WithAskTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock sets the clock used for the Ask deadline.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the registry's logger. Defaults to observability.Logger().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a registry. It fails with a ConfigurationError when no target
// was given and the process has no root target.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		timeout:       DefaultAskTimeout,
		clock:         clock.New(),
		registrations: make(map[string]*registration),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.target == nil {
		r.target = host.Root()
	}
	if r.target == nil {
		return nil, &buserr.ConfigurationError{Field: "target", Err: buserr.ErrNoTarget}
	}
	if r.logger == nil {
		r.logger = observability.Logger()
	}
	return r, nil
}

// On registers cb under key. Two host listeners are attached: one for the
// key's event and one for the broadcast event.
func (r *Registry) On(key string, cb observer.Callback) observer.RemoveFunc {
	reg := &registration{
		id:  observer.NewID(key),
		key: key,
	}
	reg.onKey = host.NewListener(r.keyHandler(reg, cb))
	reg.onGlobal = host.NewListener(r.broadcastHandler(reg, cb))

	// Attaching under the lock keeps a concurrent Clear from missing the
	// listeners of a registration it has already dropped.
	r.mu.Lock()
	r.registrations[reg.id] = reg
	r.target.AddEventListener(EventName(key), reg.onKey)
	r.target.AddEventListener(BroadcastEvent, reg.onGlobal)
	total := len(r.registrations)
	r.mu.Unlock()

	observability.LogRegister(r.logger, key, reg.id, total)

	return func() bool {
		r.mu.Lock()
		_, ok := r.registrations[reg.id]
		delete(r.registrations, reg.id)
		r.mu.Unlock()

		if ok {
			r.detach(reg)
		}
		observability.LogRemove(r.logger, key, reg.id, ok)
		return ok
	}
}

func (r *Registry) detach(reg *registration) {
	r.target.RemoveEventListener(EventName(reg.key), reg.onKey)
	r.target.RemoveEventListener(BroadcastEvent, reg.onGlobal)
}

// keyHandler serves both plain sends and ask requests for one observer.
func (r *Registry) keyHandler(reg *registration, cb observer.Callback) func(host.Event) error {
	return func(evt host.Event) error {
		ce, ok := evt.(*host.CustomEvent)
		if !ok {
			return r.protocolError(evt, "expected a custom event")
		}

		req, isAsk := ce.Detail.(*askRequest)
		if !isAsk {
			if _, err := cb(ce.Detail, reg.key); err != nil {
				return r.dispatchError("send", reg, err)
			}
			return nil
		}

		resp, err := cb(req.Data, reg.key)
		if err != nil {
			return r.dispatchError("ask", reg, err)
		}
		if resp == nil {
			return nil
		}
		return r.target.DispatchEvent(host.NewCustomEvent(req.ResponseKey, resp))
	}
}

func (r *Registry) broadcastHandler(reg *registration, cb observer.Callback) func(host.Event) error {
	return func(evt host.Event) error {
		ce, ok := evt.(*host.CustomEvent)
		if !ok {
			return r.protocolError(evt, "expected a custom event")
		}
		env, ok := ce.Detail.(*broadcastEnvelope)
		if !ok {
			return r.protocolError(evt, "expected a broadcast envelope")
		}
		if _, err := cb(env.Data, ""); err != nil {
			return r.dispatchError("broadcast", reg, err)
		}
		return nil
	}
}

func (r *Registry) protocolError(evt host.Event, msg string) error {
	err := &buserr.ProtocolError{EventType: evt.Type(), Message: msg}
	r.logger.Error("invalid host event", slog.String("error", err.Error()))
	return err
}

func (r *Registry) dispatchError(op string, reg *registration, err error) error {
	key := reg.key
	if op == "broadcast" {
		key = ""
	}
	observability.LogDispatchError(r.logger, op, key, err)
	return &buserr.DispatchError{Op: op, Key: key, ObserverID: reg.id, Err: err}
}

// Send dispatches data on key's host event. Listener failures are logged by
// the listeners and never returned, so Send always returns nil.
func (r *Registry) Send(key string, data any) error {
	observability.LogSend(r.logger, key)
	r.dispatch(host.NewCustomEvent(EventName(key), data))
	return nil
}

// Ask dispatches an ask request on key's host event and returns the replies
// of every observer that answered with a non-nil value, in registration order.
//
// Dispatch runs on its own goroutine so that a blocked observer cannot hold
// Ask past its deadline. If dispatch has not finished when the deadline
// passes, Ask fails with a TimeoutError; if ctx ends first, with ctx.Err().
// An observer panic during dispatch is recovered and returned as a
// DispatchError. The response listener is removed on every path.
func (r *Registry) Ask(ctx context.Context, key string, data any) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	observability.LogAsk(r.logger, key)
	elapsed := observability.TimedOperation()

	responseKey := ResponsePrefix + observer.NewID(key)

	var mu sync.Mutex
	var responses []any
	collect := host.NewListener(func(evt host.Event) error {
		ce, ok := evt.(*host.CustomEvent)
		if !ok {
			return r.protocolError(evt, "expected a custom event")
		}
		mu.Lock()
		responses = append(responses, ce.Detail)
		mu.Unlock()
		return nil
	})
	collected := func() []any {
		mu.Lock()
		defer mu.Unlock()
		out := make([]any, len(responses))
		copy(out, responses)
		return out
	}

	r.target.AddEventListener(responseKey, collect)
	defer r.target.RemoveEventListener(responseKey, collect)

	timer := r.clock.Timer(r.timeout)
	defer timer.Stop()

	done := make(chan struct{})
	var panicErr error
	go func() {
		defer close(done)
		defer func() {
			if p := recover(); p != nil {
				panicErr = &buserr.DispatchError{Op: "ask", Key: key, Err: fmt.Errorf("observer panicked: %v", p)}
				observability.LogDispatchError(r.logger, "ask", key, panicErr)
			}
		}()
		r.dispatch(host.NewCustomEvent(EventName(key), &askRequest{Data: data, ResponseKey: responseKey}))
	}()

	finish := func() ([]any, error) {
		if panicErr != nil {
			return nil, panicErr
		}
		results := collected()
		if len(results) == 0 {
			observability.LogNoObservers(r.logger, key)
		}
		observability.LogAskComplete(r.logger, key, len(results), elapsed())
		return results, nil
	}

	select {
	case <-done:
		return finish()
	case <-timer.C:
		// A dispatch that finished at the same instant still wins.
		select {
		case <-done:
			return finish()
		default:
		}
		err := &buserr.TimeoutError{Key: key, Timeout: r.timeout, Responses: len(collected())}
		r.logger.Error("ask timed out", slog.String("key", key), slog.String("error", err.Error()))
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Broadcast dispatches data on the broadcast event, reaching every observer
// attached to the target.
func (r *Registry) Broadcast(data any) error {
	observability.LogBroadcast(r.logger, r.Len())
	r.dispatch(host.NewCustomEvent(BroadcastEvent, &broadcastEnvelope{Data: data}))
	return nil
}

func (r *Registry) dispatch(evt host.Event) {
	if err := r.target.DispatchEvent(evt); err != nil {
		r.logger.Debug("listeners reported errors",
			slog.String("event", evt.Type()),
			slog.String("error", err.Error()),
		)
	}
}

// Clear detaches every observer. Removers returned earlier report false.
func (r *Registry) Clear() {
	r.mu.Lock()
	regs := r.registrations
	r.registrations = make(map[string]*registration)
	r.mu.Unlock()

	for _, reg := range regs {
		r.detach(reg)
	}
	observability.LogClear(r.logger, len(regs))
}

// Len returns the number of observers registered through this registry.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registrations)
}

// Target returns the host event target the registry is attached to.
func (r *Registry) Target() host.EventTarget {
	return r.target
}
