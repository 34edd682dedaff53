package storage

import (
	"errors"
	"fmt"

	"github.com/dealhunt/dealhunt-go/internal/config"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is the secure key-value capability backing session persistence.
// Values survive process restarts for every backend except memory.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) (string, error)

	// Set writes the value for key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes the value for key. Removing a missing key is not an
	// error.
	Remove(key string) error

	// Clear removes every key this store owns.
	Clear() error
}

// NewStore selects the backend from configuration. Call sites never branch
// on platform; they only see the Store interface.
func NewStore(cfg *config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.StorageBackendKeyring:
		return NewKeyringStore(cfg.Service), nil
	case config.StorageBackendFile:
		return NewFileStore(cfg.Path)
	case config.StorageBackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
