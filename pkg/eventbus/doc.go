/*
Package eventbus provides a pluggable publish/subscribe event bus.

# Overview

A Bus routes events by string key using one of two registries:

  - TypeNative (default) attaches observers to a host event target as
    listeners and lets the target dispatch. Config files may name it BROWSER.
  - TypeInternal keeps observers in an in-process map and calls them directly.

Both support the same operations:

	bus, err := eventbus.New(eventbus.WithType(eventbus.TypeInternal))
	if err != nil {
	    return err
	}
	defer bus.Close()

	remove := bus.On("user.created", func(data any, key string) (any, error) {
	    fmt.Println("welcome", data)
	    return nil, nil
	})
	defer remove()

	bus.Send("user.created", "alice")

# Ask

Ask collects replies from every observer of a key:

	bus.On("price", func(data any, _ string) (any, error) {
	    return lookup(data.(string)), nil
	})
	prices, err := bus.Ask(ctx, "price", "ACME")

The internal registry keeps truthy return values and never waits. The
native registry keeps non-nil replies and fails with a TimeoutError if
dispatch does not finish within the ask timeout (one second by default).

# Stats

Stats returns live counters of sends, asks, broadcasts, and active
observers. With a statsstore.Store configured, PersistStats saves a
snapshot; Collector exposes the counters to Prometheus.

# Configuration

Options configure a bus in code. FromSettings builds one from a file loaded
by the config package, and Module provides one to an fx application.
*/
package eventbus
