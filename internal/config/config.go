package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("dealhunt version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	API      APIConfig      `mapstructure:"api"`
	Storage  StorageConfig  `mapstructure:"storage"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ProviderConfig points at the hosted identity provider. URL and AnonKey are
// required; the app cannot start without them.
type ProviderConfig struct {
	URL     string `mapstructure:"url"`
	AnonKey string `mapstructure:"anon_key"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageBackend selects the secure key-value store implementation.
type StorageBackend string

const (
	StorageBackendKeyring StorageBackend = "keyring"
	StorageBackendFile    StorageBackend = "file"
	StorageBackendMemory  StorageBackend = "memory"
)

type StorageConfig struct {
	Backend StorageBackend `mapstructure:"backend"`
	Service string         `mapstructure:"service"` // keyring service name
	Path    string         `mapstructure:"path"`    // file backend location
}

// OAuthConfig controls the interactive sign-in flow. RedirectPort 0 picks a
// free loopback port.
type OAuthConfig struct {
	RedirectHost string        `mapstructure:"redirect_host"`
	RedirectPort int           `mapstructure:"redirect_port"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// InitFlags initializes command line flags (without parsing)
func InitFlags() {
	pflag.String("provider.url", "", "Identity provider base URL")
	pflag.String("api.base-url", "", "Storefront API base URL")
	pflag.String("storage.backend", "", "Session storage backend (keyring|file|memory)")
	// Note: no pflag.Parse() here as it's called in main.go
}

func Load() (*Config, error) {
	viper.Reset() // Ensure clean state

	// Local .env files hold the provider URL/key during development.
	_ = godotenv.Load()

	viper.SetEnvPrefix("DEALHUNT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}
	// The flag name carries a dash; bind it to the canonical key by hand.
	if flag := pflag.Lookup("api.base-url"); flag != nil {
		if err := viper.BindPFlag("api.base_url", flag); err != nil {
			return nil, err
		}
	}

	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/dealhunt")

	if err := viper.ReadInConfig(); err != nil {
		// The config file is optional; env vars and flags can carry everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Provider.URL == "" {
		return nil, fmt.Errorf("provider.url is required, please adjust the config or set DEALHUNT_PROVIDER_URL")
	}
	if config.Provider.AnonKey == "" {
		return nil, fmt.Errorf("provider.anon_key is required, please adjust the config or set DEALHUNT_PROVIDER_ANON_KEY")
	}

	switch config.Storage.Backend {
	case StorageBackendKeyring, StorageBackendFile, StorageBackendMemory:
	case "":
		config.Storage.Backend = StorageBackendKeyring
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", config.Storage.Backend)
	}

	return &config, nil
}

func setDefaults() {
	// Empty defaults register the keys so AutomaticEnv can fill them.
	viper.SetDefault("provider.url", "")
	viper.SetDefault("provider.anon_key", "")
	viper.SetDefault("api.base_url", "")
	viper.SetDefault("api.timeout", "30s")
	viper.SetDefault("storage.backend", "")
	viper.SetDefault("storage.path", "")
	viper.SetDefault("oauth.redirect_host", "127.0.0.1")
	viper.SetDefault("oauth.redirect_port", 0)
	viper.SetDefault("oauth.timeout", "3m")
	viper.SetDefault("storage.service", "dealhunt")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}
