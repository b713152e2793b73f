// Package observer defines the contract shared by every event bus registry.
//
// A registry stores observers under string keys and offers three ways to
// reach them:
//   - Send: fire-and-forget delivery to the observers of one key
//   - Ask: request/response, collecting every truthy reply
//   - Broadcast: delivery to every observer regardless of key
//
// The direct and native packages provide the two implementations.
package observer

import (
	"context"

	"github.com/google/uuid"
)

// Callback handles an event. key is the event key for Send and Ask, and
// empty for Broadcast. The returned value is collected by Ask and ignored
// otherwise. A non-nil error counts as a failed delivery.
type Callback func(data any, key string) (any, error)

// RemoveFunc unregisters an observer. It returns true only on the call that
// actually removed it and false on every later call, including after Clear.
type RemoveFunc func() bool

// Observer is a registered callback.
type Observer struct {
	ID       string
	Key      string
	Callback Callback
}

// Registry stores observers and dispatches events to them.
//
// Implementations are safe for concurrent use. Callbacks run outside the
// registry's lock, so they may register, remove, or dispatch re-entrantly.
type Registry interface {
	// On registers cb under key and returns its remover.
	On(key string, cb Callback) RemoveFunc

	// Send delivers data to every observer of key.
	Send(key string, data any) error

	// Ask delivers data to every observer of key and collects their truthy replies.
	Ask(ctx context.Context, key string, data any) ([]any, error)

	// Broadcast delivers data to every observer of every key.
	Broadcast(data any) error

	// Clear removes every observer.
	Clear()
}

// NewID returns a registry-unique observer id of the form "<key>-<uuid>".
func NewID(key string) string {
	return key + "-" + uuid.NewString()
}
