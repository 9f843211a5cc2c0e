package events

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("events",
	fx.Provide(NewOutboxPublisher),
	fx.Provide(NewRelay),
	fx.Invoke(registerRelay),
)

func registerRelay(lc fx.Lifecycle, relay *Relay) {
	if relay == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			relay.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			relay.Stop()
			return nil
		},
	})
}
