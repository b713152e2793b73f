package eventbus

import (
	"fmt"

	"github.com/randalmurphal/eventbus/pkg/eventbus/config"
	"github.com/randalmurphal/eventbus/pkg/eventbus/statsstore"
)

// FromSettings builds a bus from loaded configuration. opts are applied
// after the settings and override them. When s.StatsDB is set, a SQLite
// stats store is opened there and closed by Bus.Close.
func FromSettings(s config.Settings, opts ...Option) (*Bus, error) {
	base := []Option{
		WithType(Type(s.Type)),
		WithLogLevel(s.LogLevel),
		WithAskTimeout(s.AskTimeout),
		WithMetrics(s.Metrics),
		WithTracing(s.Tracing),
	}

	var store *statsstore.SQLiteStore
	if s.StatsDB != "" {
		var err error
		store, err = statsstore.NewSQLiteStore(s.StatsDB)
		if err != nil {
			return nil, fmt.Errorf("open stats store: %w", err)
		}
		base = append(base, withOwnedStatsStore(store, s.StatsName))
	}

	bus, err := New(append(base, opts...)...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return bus, nil
}

// FromFile loads settings from a YAML or JSON file and builds a bus.
func FromFile(path string, opts ...Option) (*Bus, error) {
	s, err := config.LoadSettings(path)
	if err != nil {
		return nil, err
	}
	return FromSettings(s, opts...)
}
