package requester

import "go.uber.org/fx"

// Module provides the requester module dependencies
var Module = fx.Module("requester",
	fx.Provide(
		NewClient,
		fx.Annotate(
			NewSessionAuthManager,
			fx.As(new(AuthManager)),
		),
	),
)
