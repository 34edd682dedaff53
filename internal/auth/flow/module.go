package flow

import "go.uber.org/fx"

// Module provides the interactive OAuth flow
var Module = fx.Module("flow",
	fx.Provide(
		fx.Annotate(
			NewLoopbackFlow,
			fx.As(new(Flow)),
		),
	),
)
