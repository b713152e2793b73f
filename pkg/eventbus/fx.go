package eventbus

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/multierr"
)

// Module provides a *Bus built from opts to an fx application. When the
// application stops, the bus persists its stats (if a store is configured)
// and closes.
func Module(opts ...Option) fx.Option {
	return fx.Module("eventbus",
		fx.Provide(func() (*Bus, error) {
			return New(opts...)
		}),
		fx.Invoke(registerLifecycle),
	)
}

func registerLifecycle(lc fx.Lifecycle, bus *Bus) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			var err error
			if bus.store != nil {
				_, err = bus.PersistStats(ctx)
			}
			return multierr.Append(err, bus.Close())
		},
	})
}
