package requester

import (
	"context"
	"errors"
	"net/http"

	"github.com/dealhunt/dealhunt-go/internal/auth"
)

// ErrSessionExpired is returned when a 401 could not be recovered by a
// refresh; the user has been signed out and must re-authenticate.
var ErrSessionExpired = errors.New("requester: session expired")

// AuthManager attaches credentials to outgoing requests and recovers from
// authorization failures.
type AuthManager interface {
	// ApplyAuth adds the current bearer credential to the request, renewing
	// it first when it is about to expire. A request without a session goes
	// out unauthenticated.
	ApplyAuth(ctx context.Context, req *http.Request) error

	// HandleUnauthorized reacts to a 401 by attempting one refresh. It
	// returns the renewed access token, or ErrSessionExpired after forcing
	// sign-out.
	HandleUnauthorized(ctx context.Context) (string, error)
}

// SessionAuthManager implements AuthManager over the auth state controller,
// so a forced sign-out is immediately visible to the rest of the app.
type SessionAuthManager struct {
	auth *auth.Controller
}

// NewSessionAuthManager creates an auth manager bound to the controller
func NewSessionAuthManager(controller *auth.Controller) *SessionAuthManager {
	return &SessionAuthManager{auth: controller}
}

func (m *SessionAuthManager) ApplyAuth(ctx context.Context, req *http.Request) error {
	// Snapshot refreshes proactively when the token is inside the expiry
	// buffer, so the attached credential is always current.
	state := m.auth.Snapshot(ctx)
	if state.Session != nil {
		req.Header.Set("Authorization", "Bearer "+state.Session.AccessToken)
	}
	return nil
}

func (m *SessionAuthManager) HandleUnauthorized(ctx context.Context) (string, error) {
	refreshed := m.auth.RefreshToken(ctx)
	if refreshed == nil {
		// RefreshToken already demoted the state to signed-out.
		return "", ErrSessionExpired
	}
	return refreshed.AccessToken, nil
}
