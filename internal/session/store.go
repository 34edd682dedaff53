package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dealhunt/dealhunt-go/internal/logger"
	"github.com/dealhunt/dealhunt-go/internal/models"
	"github.com/dealhunt/dealhunt-go/internal/storage"
	"go.uber.org/zap"
)

// Persisted record keys. The user and refresh token are stored redundantly
// so either can be read without deserializing the full session.
const (
	KeySession      = "auth_session"
	KeyUser         = "user_data"
	KeyRefreshToken = "refresh_token"
)

// Store owns the durable copy of the session. Only the auth service writes
// through it.
type Store struct {
	kv storage.Store
}

// NewStore creates a session store over the secure key-value capability
func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// Load reads the persisted session. A missing or unreadable record yields
// nil rather than an error; a corrupt record is logged and discarded.
func (s *Store) Load() *models.Session {
	data, err := s.kv.Get(KeySession)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Error("failed to read stored session", zap.Error(err))
		}
		return nil
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		logger.Error("failed to decode stored session", zap.Error(err))
		return nil
	}
	return &session
}

// Save persists the session, user, and refresh token under their keys. Any
// write failure is surfaced so the caller treats the store as failed.
func (s *Store) Save(session *models.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	userJSON, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	if err := s.kv.Set(KeySession, string(sessionJSON)); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if err := s.kv.Set(KeyUser, string(userJSON)); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	if err := s.kv.Set(KeyRefreshToken, session.RefreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Clear removes every persisted key. Each removal is attempted even if an
// earlier one fails; sign-out must always succeed locally, so failures are
// logged and swallowed.
func (s *Store) Clear() {
	for _, key := range []string{KeySession, KeyUser, KeyRefreshToken} {
		if err := s.kv.Remove(key); err != nil {
			logger.Error("failed to remove stored key", zap.String("key", key), zap.Error(err))
		}
	}
}
