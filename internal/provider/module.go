package provider

import "go.uber.org/fx"

// Module provides the identity provider client
var Module = fx.Module("provider",
	fx.Provide(
		fx.Annotate(
			NewClient,
			fx.As(new(Provider)),
		),
	),
)
