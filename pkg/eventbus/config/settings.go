package config

import (
	"fmt"
	"strings"
	"time"

	buserr "github.com/randalmurphal/eventbus/pkg/eventbus/errors"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
)

// Settings is the file-configurable part of a bus.
type Settings struct {
	// Type selects the registry: "NATIVE" or "INTERNAL". "BROWSER" is read
	// as "NATIVE".
	Type string

	// LogLevel is the process-wide logging threshold.
	LogLevel observability.Level

	// AskTimeout bounds native asks.
	AskTimeout time.Duration

	// Metrics enables OpenTelemetry metrics.
	Metrics bool

	// Tracing enables OpenTelemetry spans around bus operations.
	Tracing bool

	// StatsDB is a SQLite file for stats snapshots. Empty disables persistence.
	StatsDB string

	// StatsName labels persisted snapshots.
	StatsName string
}

// DefaultSettings returns the settings used for absent keys.
func DefaultSettings() Settings {
	return Settings{
		Type:       "NATIVE",
		LogLevel:   observability.DefaultLevel,
		AskTimeout: time.Second,
		StatsName:  "default",
	}
}

// Settings extracts bus settings. Keys nested under "eventbus" take
// precedence over top-level keys. The type is upper-cased but not validated;
// an unknown log level is a ConfigurationError.
func (v Values) Settings() (Settings, error) {
	src := v
	if v.Has("eventbus") {
		src = v.Section("eventbus")
	}

	s := DefaultSettings()
	s.Type = strings.ToUpper(strings.TrimSpace(src.String("type", s.Type)))
	if s.Type == "BROWSER" {
		s.Type = "NATIVE"
	}
	s.AskTimeout = src.Duration("ask_timeout", s.AskTimeout)
	s.Metrics = src.Bool("metrics", s.Metrics)
	s.Tracing = src.Bool("tracing", s.Tracing)
	s.StatsDB = src.String("stats_db", s.StatsDB)
	s.StatsName = src.String("stats_name", s.StatsName)

	if src.Has("log_level") {
		level, err := parseLevel(src.Raw()["log_level"])
		if err != nil {
			return Settings{}, err
		}
		s.LogLevel = level
	}
	return s, nil
}

func parseLevel(raw any) (observability.Level, error) {
	switch val := raw.(type) {
	case string:
		level, err := observability.ParseLevel(val)
		if err != nil {
			return 0, &buserr.ConfigurationError{Field: "log_level", Value: val, Err: buserr.ErrInvalidLogLevel}
		}
		return level, nil
	case int:
		if level := observability.Level(val); level.Valid() {
			return level, nil
		}
	case float64:
		if level := observability.Level(int(val)); level.Valid() && val == float64(int(val)) {
			return level, nil
		}
	}
	return 0, &buserr.ConfigurationError{Field: "log_level", Value: fmt.Sprint(raw), Err: buserr.ErrInvalidLogLevel}
}
