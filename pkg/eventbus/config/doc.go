/*
Package config loads event bus settings from YAML or JSON.

# Overview

Files are decoded into Values, a map[string]any with typed accessors that
fall back to a default when a key is missing or has the wrong type. Settings
then reads the keys the bus understands:

	type: NATIVE          # or INTERNAL; BROWSER is an alias of NATIVE
	log_level: WARN       # DEBUG, INFO, WARN, ERROR, or 0-3
	ask_timeout: 1s       # duration string or seconds
	metrics: true
	tracing: false
	stats_db: stats.db    # optional SQLite file for stats snapshots
	stats_name: api

The keys may also be nested under a top-level "eventbus" section.

# Usage

	settings, err := config.LoadSettings("eventbus.yaml")
	if err != nil {
	    return err
	}
	bus, err := eventbus.FromSettings(settings)

Duration values accept a time.ParseDuration string ("500ms", "2s") or a
number of seconds.
*/
package config
