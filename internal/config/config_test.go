package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresProviderURL(t *testing.T) {
	t.Setenv("DEALHUNT_PROVIDER_URL", "")
	t.Setenv("DEALHUNT_PROVIDER_ANON_KEY", "anon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider.url")
}

func TestLoadRequiresAnonKey(t *testing.T) {
	t.Setenv("DEALHUNT_PROVIDER_URL", "https://idp.example.com")
	t.Setenv("DEALHUNT_PROVIDER_ANON_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider.anon_key")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DEALHUNT_PROVIDER_URL", "https://idp.example.com")
	t.Setenv("DEALHUNT_PROVIDER_ANON_KEY", "anon")
	t.Setenv("DEALHUNT_STORAGE_BACKEND", "memory")
	t.Setenv("DEALHUNT_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://idp.example.com", cfg.Provider.URL)
	assert.Equal(t, "anon", cfg.Provider.AnonKey)
	assert.Equal(t, StorageBackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEALHUNT_PROVIDER_URL", "https://idp.example.com")
	t.Setenv("DEALHUNT_PROVIDER_ANON_KEY", "anon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageBackendKeyring, cfg.Storage.Backend)
	assert.Equal(t, "dealhunt", cfg.Storage.Service)
	assert.Equal(t, "127.0.0.1", cfg.OAuth.RedirectHost)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadRejectsUnknownStorageBackend(t *testing.T) {
	t.Setenv("DEALHUNT_PROVIDER_URL", "https://idp.example.com")
	t.Setenv("DEALHUNT_PROVIDER_ANON_KEY", "anon")
	t.Setenv("DEALHUNT_STORAGE_BACKEND", "floppy")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage backend")
}
