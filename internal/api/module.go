package api

import "go.uber.org/fx"

// Module provides the storefront API client
var Module = fx.Module("api",
	fx.Provide(NewClient),
)
