package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dealhunt/dealhunt-go/internal/auth/flow"
	"github.com/dealhunt/dealhunt-go/internal/logger"
	"github.com/dealhunt/dealhunt-go/internal/models"
	"github.com/dealhunt/dealhunt-go/internal/provider"
	"github.com/dealhunt/dealhunt-go/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// expiryBuffer is the safety margin, in seconds, subtracted from token
// expiry so a token is renewed before it can expire mid-request.
const expiryBuffer = 300

// Service orchestrates the identity provider, the session store, and the
// interactive OAuth flow. It is the single writer of the persisted session.
type Service struct {
	provider provider.Provider
	store    *session.Store
	flow     flow.Flow

	refreshGroup singleflight.Group
	now          func() time.Time
}

// NewService creates the auth service
func NewService(idp provider.Provider, store *session.Store, authFlow flow.Flow) *Service {
	return &Service{
		provider: idp,
		store:    store,
		flow:     authFlow,
		now:      time.Now,
	}
}

// SignInWithEmail verifies email credentials, persists the resulting
// session, and returns it.
func (s *Service) SignInWithEmail(ctx context.Context, email, password string) (*models.Session, error) {
	grant, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		logger.Error("email sign-in failed", zap.Error(err))
		return nil, authErrorFrom(err)
	}
	return s.establish(grant, "Authentication failed")
}

// SignUpWithEmail registers a new account, carrying optional metadata
// through to the provider, and persists the resulting session.
func (s *Service) SignUpWithEmail(ctx context.Context, email, password string, metadata map[string]any) (*models.Session, error) {
	grant, err := s.provider.SignUp(ctx, email, password, metadata)
	if err != nil {
		logger.Error("email sign-up failed", zap.Error(err))
		return nil, authErrorFrom(err)
	}
	return s.establish(grant, "Registration failed")
}

// SignInWithGoogle runs the Google OAuth flow.
func (s *Service) SignInWithGoogle(ctx context.Context) (*models.Session, error) {
	return s.signInWithOAuth(ctx, "google", "email profile")
}

// SignInWithFacebook runs the Facebook OAuth flow.
func (s *Service) SignInWithFacebook(ctx context.Context) (*models.Session, error) {
	return s.signInWithOAuth(ctx, "facebook", "email public_profile")
}

func (s *Service) signInWithOAuth(ctx context.Context, name, scopes string) (*models.Session, error) {
	authURL, err := s.provider.SignInWithOAuth(ctx, provider.OAuthOptions{
		Provider:   name,
		RedirectTo: s.flow.RedirectURI(),
		Scopes:     scopes,
	})
	if err != nil {
		logger.Error("oauth sign-in failed", zap.String("provider", name), zap.Error(err))
		return nil, authErrorFrom(err)
	}

	callbackURL, err := s.flow.Authorize(ctx, authURL)
	if err != nil {
		if errors.Is(err, flow.ErrRedirectPending) {
			// Web runtime: the session arrives through CompleteOAuthRedirect.
			return nil, err
		}
		if errors.Is(err, flow.ErrCancelled) {
			return nil, &models.AuthError{
				Message: fmt.Sprintf("%s authentication was cancelled", name),
				Code:    models.CodeAuthError,
				Status:  http.StatusBadRequest,
			}
		}
		logger.Error("oauth authorization failed", zap.String("provider", name), zap.Error(err))
		return nil, authErrorFrom(err)
	}

	return s.completeOAuth(ctx, name, callbackURL)
}

// CompleteOAuthRedirect finishes an OAuth sign-in from a redirect callback
// URL. It is the resume entry point for the web runtime and is also used by
// the native flow once the loopback listener catches the redirect.
func (s *Service) CompleteOAuthRedirect(ctx context.Context, callbackURL string) (*models.Session, error) {
	return s.completeOAuth(ctx, "oauth", callbackURL)
}

func (s *Service) completeOAuth(ctx context.Context, name, callbackURL string) (*models.Session, error) {
	accessToken, refreshToken, err := parseCallbackTokens(callbackURL)
	if err != nil {
		return nil, &models.AuthError{
			Message: fmt.Sprintf("%s authentication failed - no access token", name),
			Code:    models.CodeAuthError,
			Status:  http.StatusBadRequest,
		}
	}

	grant, err := s.provider.SetSession(ctx, accessToken, refreshToken)
	if err != nil {
		logger.Error("token exchange failed", zap.String("provider", name), zap.Error(err))
		return nil, authErrorFrom(err)
	}
	return s.establish(grant, fmt.Sprintf("%s authentication failed", name))
}

// SignOut revokes the remote session best-effort and unconditionally clears
// local state. Local logout is authoritative; it never fails the caller.
func (s *Service) SignOut(ctx context.Context) {
	if err := s.provider.SignOut(ctx); err != nil {
		logger.Error("provider sign-out failed", zap.Error(err))
	}
	s.store.Clear()
}

// GetCurrentSession prefers the provider's live session and falls back to
// the persisted one. A nil result without error means "not signed in"; the
// error is non-nil only when the context was cancelled.
func (s *Service) GetCurrentSession(ctx context.Context) (*models.Session, error) {
	grant, err := s.provider.GetSession(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Error("failed to get provider session", zap.Error(err))
		return s.store.Load(), nil
	}

	if grant != nil && grant.User != nil {
		authSession := s.buildSession(grant)
		if saveErr := s.store.Save(authSession); saveErr != nil {
			logger.Error("failed to persist session", zap.Error(saveErr))
		}
		return authSession, nil
	}

	return s.store.Load(), nil
}

// RefreshToken exchanges the refresh token for a new session. Concurrent
// calls collapse into a single provider exchange; refresh tokens are
// one-shot, so redundant redemptions must never race. Any failure clears
// the store and yields nil: the caller must treat nil as "session ended".
func (s *Service) RefreshToken(ctx context.Context) *models.Session {
	result, _, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		return s.refresh(ctx), nil
	})
	refreshed, _ := result.(*models.Session)
	return refreshed
}

func (s *Service) refresh(ctx context.Context) *models.Session {
	var refreshToken string
	if stored := s.store.Load(); stored != nil {
		refreshToken = stored.RefreshToken
	}

	grant, err := s.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		logger.Error("token refresh failed", zap.Error(err))
		s.store.Clear()
		return nil
	}
	if grant == nil || grant.User == nil || grant.AccessToken == "" {
		s.store.Clear()
		return nil
	}

	authSession := s.buildSession(grant)
	if err := s.store.Save(authSession); err != nil {
		logger.Error("failed to persist refreshed session", zap.Error(err))
		s.store.Clear()
		return nil
	}
	return authSession
}

// IsTokenExpired reports whether the session's access token is within the
// renewal buffer of its expiry.
func (s *Service) IsTokenExpired(session *models.Session) bool {
	return session.ExpiresAt <= s.now().Unix()+expiryBuffer
}

// establish validates a provider grant, maps it, and persists the session.
func (s *Service) establish(grant *provider.Session, failureMsg string) (*models.Session, error) {
	if grant == nil || grant.User == nil || grant.AccessToken == "" {
		return nil, &models.AuthError{
			Message: failureMsg,
			Code:    models.CodeAuthError,
			Status:  http.StatusBadRequest,
		}
	}

	authSession := s.buildSession(grant)
	if err := s.store.Save(authSession); err != nil {
		logger.Error("failed to persist session", zap.Error(err))
		return nil, err
	}
	return authSession, nil
}

// buildSession maps a provider grant onto the app session. Display name and
// avatar fall through the metadata keys the different providers use.
func (s *Service) buildSession(grant *provider.Session) *models.Session {
	user := grant.User
	return &models.Session{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    grant.ExpiresAt,
		User: models.User{
			ID:        user.ID,
			Email:     user.Email,
			Name:      metadataString(user.UserMetadata, "full_name", "name"),
			Avatar:    metadataString(user.UserMetadata, "avatar_url", "picture"),
			Phone:     user.Phone,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		},
	}
}

func metadataString(metadata map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := metadata[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

// parseCallbackTokens extracts the token pair from a redirect callback URL.
// Tokens arrive in the URL fragment; the loopback flow forwards them as
// query parameters, so both locations are checked.
func parseCallbackTokens(callbackURL string) (accessToken, refreshToken string, err error) {
	parsed, err := url.Parse(callbackURL)
	if err != nil {
		return "", "", err
	}

	params, err := url.ParseQuery(parsed.Fragment)
	if err != nil || params.Get("access_token") == "" {
		params = parsed.Query()
	}

	accessToken = params.Get("access_token")
	if accessToken == "" {
		return "", "", errors.New("no access token in callback URL")
	}
	return accessToken, params.Get("refresh_token"), nil
}

// authErrorFrom converts a provider failure into the unified error contract.
func authErrorFrom(err error) *models.AuthError {
	var provErr *provider.Error
	if errors.As(err, &provErr) {
		status := provErr.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		return &models.AuthError{Message: provErr.Message, Code: models.CodeAuthError, Status: status}
	}
	return &models.AuthError{Message: err.Error(), Code: models.CodeAuthError, Status: http.StatusBadRequest}
}
