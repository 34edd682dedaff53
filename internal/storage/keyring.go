package storage

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps values in the operating system keychain. The keyring
// has no enumeration API, so written keys are tracked for Clear.
type KeyringStore struct {
	mu      sync.Mutex
	service string
	keys    map[string]struct{}
}

// NewKeyringStore creates a store scoped to the given keyring service name
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{
		service: service,
		keys:    make(map[string]struct{}),
	}
}

func (s *KeyringStore) Get(key string) (string, error) {
	value, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *KeyringStore) Set(key, value string) error {
	if err := keyring.Set(s.service, key, value); err != nil {
		return err
	}

	s.mu.Lock()
	s.keys[key] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *KeyringStore) Remove(key string) error {
	err := keyring.Delete(s.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}

	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
	return nil
}

func (s *KeyringStore) Clear() error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.keys))
	for key := range s.keys {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	var firstErr error
	for _, key := range keys {
		if err := s.Remove(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
