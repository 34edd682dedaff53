package auth

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the auth service and state controller
var Module = fx.Module("auth",
	fx.Provide(
		NewService,
		NewController,
	),
	fx.Invoke(func(lc fx.Lifecycle, controller *Controller) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				controller.Initialize(ctx)
				return nil
			},
		})
	}),
)
