package storage

import "go.uber.org/fx"

// Module provides the storage dependencies
var Module = fx.Module("storage",
	fx.Provide(NewStore),
)
