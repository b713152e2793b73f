package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for construction and storage.
var (
	// ErrUnknownType indicates the configured registry type is not supported.
	ErrUnknownType = errors.New("unknown eventbus type")

	// ErrNoTarget indicates no host event target is available for the native registry.
	ErrNoTarget = errors.New("no host event target available")

	// ErrInvalidLogLevel indicates a log level name could not be parsed.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrNoStatsStore indicates stats persistence was requested without a store.
	ErrNoStatsStore = errors.New("no stats store configured")

	// ErrNotFound indicates a stats snapshot doesn't exist.
	ErrNotFound = errors.New("stats snapshot not found")

	// ErrStoreClosed indicates the stats store has been closed.
	ErrStoreClosed = errors.New("stats store closed")
)

// ConfigurationError reports an invalid setting found while building a bus.
// It is fatal: construction fails and nothing is retried.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Value)
	}
	if e.Field != "" {
		return fmt.Sprintf("config %s: %v", e.Field, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// DispatchError wraps an error returned by an observer callback.
type DispatchError struct {
	// Op is the operation during which the callback failed ("send", "ask", "broadcast").
	Op string
	// Key is the event key, empty for broadcasts.
	Key string
	// ObserverID identifies the failing observer when known.
	ObserverID string
	Err        error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: observer %s: %v", e.Op, e.ObserverID, e.Err)
	}
	return fmt.Sprintf("%s %q: observer %s: %v", e.Op, e.Key, e.ObserverID, e.Err)
}

// Unwrap returns the callback's error.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// ProtocolError indicates a host event did not have the shape a listener expected.
type ProtocolError struct {
	EventType string
	Message   string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("invalid event %s: %s", e.EventType, e.Message)
}

// TimeoutError indicates an ask was not answered before its deadline.
type TimeoutError struct {
	Key       string
	Timeout   time.Duration
	Responses int
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s for event: %s (%d responses)", e.Timeout, e.Key, e.Responses)
}
