// Package errors defines the error taxonomy shared by the event bus packages.
//
// Errors fall into four categories:
//   - Configuration: invalid settings, fatal at construction
//   - Dispatch: an observer callback failed
//   - Protocol: a host event had an unexpected shape
//   - Timeout: an ask deadline elapsed
package errors

import (
	"context"
	"errors"
)

// Category classifies an error by where it originated.
type Category int

const (
	// CategoryUnknown is any error not produced by the bus.
	CategoryUnknown Category = iota

	// CategoryConfiguration covers invalid construction settings.
	CategoryConfiguration

	// CategoryDispatch covers failures raised by observer callbacks.
	CategoryDispatch

	// CategoryProtocol covers malformed host events.
	CategoryProtocol

	// CategoryTimeout covers elapsed ask deadlines and cancelled contexts.
	CategoryTimeout
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryConfiguration:
		return "configuration"
	case CategoryDispatch:
		return "dispatch"
	case CategoryProtocol:
		return "protocol"
	case CategoryTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Categorize determines which category an error belongs to.
func Categorize(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return CategoryConfiguration
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTimeout
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return CategoryProtocol
	}

	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		return CategoryDispatch
	}

	return CategoryUnknown
}

// IsTimeout reports whether err is an ask timeout or context expiry.
func IsTimeout(err error) bool {
	return Categorize(err) == CategoryTimeout
}

// IsConfiguration reports whether err is a construction failure.
func IsConfiguration(err error) bool {
	return Categorize(err) == CategoryConfiguration
}
