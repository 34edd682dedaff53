package config

import "go.uber.org/fx"

// Module provides the loaded configuration and its sections
var Module = fx.Module("config",
	fx.Provide(
		Load,
		func(cfg *Config) *ProviderConfig { return &cfg.Provider },
		func(cfg *Config) *APIConfig { return &cfg.API },
		func(cfg *Config) *StorageConfig { return &cfg.Storage },
		func(cfg *Config) *OAuthConfig { return &cfg.OAuth },
		func(cfg *Config) *LoggingConfig { return &cfg.Logging },
	),
)
