package eventbus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/statsstore"
)

func TestModuleLifecycle(t *testing.T) {
	store := statsstore.NewMemoryStore()
	var bus *eventbus.Bus

	app := fx.New(
		eventbus.Module(
			eventbus.WithType(eventbus.TypeInternal),
			eventbus.WithStatsStore(store, "app"),
		),
		fx.NopLogger,
		fx.Populate(&bus),
	)
	require.NoError(t, app.Err())

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	require.NotNil(t, bus)

	remove := bus.On("k", func(any, string) (any, error) { return nil, nil })
	require.NoError(t, bus.Send("k", nil))

	require.NoError(t, app.Stop(ctx))

	// Stopping persists stats and clears observers.
	latest, err := store.Latest(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, int64(1), latest.Sends)
	assert.Equal(t, int64(1), latest.On)
	assert.False(t, remove())
}

func TestModuleInvalidType(t *testing.T) {
	app := fx.New(
		eventbus.Module(eventbus.WithType("NOPE")),
		fx.NopLogger,
	)
	err := app.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown eventbus type: NOPE")
}

func TestModuleWithoutStore(t *testing.T) {
	var bus *eventbus.Bus
	app := fx.New(
		eventbus.Module(eventbus.WithType(eventbus.TypeInternal)),
		fx.NopLogger,
		fx.Populate(&bus),
	)
	require.NoError(t, app.Err())

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	assert.NoError(t, app.Stop(ctx))
}
