package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dealhunt/dealhunt-go/internal/config"
	"github.com/dealhunt/dealhunt-go/internal/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Client talks to the hosted identity provider's auth REST API. It holds the
// current token pair so GetSession, RefreshSession, and SignOut operate on
// the established session, mirroring the provider's own SDKs.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client

	mu      sync.Mutex
	current *Session
}

// NewClient creates a provider client from configuration
func NewClient(cfg *config.ProviderConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey: cfg.AnonKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", body, "", &session); err != nil {
		return nil, err
	}

	c.adopt(&session)
	return &session, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Session, error) {
	body := map[string]any{"email": email, "password": password}
	if metadata != nil {
		body["data"] = metadata
	}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/signup", body, "", &session); err != nil {
		return nil, err
	}

	c.adopt(&session)
	return &session, nil
}

// SignInWithOAuth builds the hosted authorization URL. The provider runs the
// third-party handshake itself and returns tokens on the redirect URI.
func (c *Client) SignInWithOAuth(_ context.Context, opts OAuthOptions) (string, error) {
	if opts.Provider == "" {
		return "", &Error{Message: "oauth provider is required", Status: http.StatusBadRequest}
	}

	query := url.Values{}
	query.Set("provider", opts.Provider)
	if opts.RedirectTo != "" {
		query.Set("redirect_to", opts.RedirectTo)
	}
	if opts.Scopes != "" {
		query.Set("scopes", opts.Scopes)
	}

	return c.baseURL + "/authorize?" + query.Encode(), nil
}

// SetSession validates a token pair against the provider and adopts it as
// the current session.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", nil, accessToken, &user); err != nil {
		return nil, err
	}

	session := &Session{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		RefreshToken: refreshToken,
		User:         &user,
	}
	c.adopt(session)
	return session, nil
}

// GetSession returns the current session after revalidating its user with
// the provider. A nil session without error means "not signed in".
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()

	if current == nil {
		return nil, nil
	}

	var user User
	if err := c.do(ctx, http.MethodGet, "/user", nil, current.AccessToken, &user); err != nil {
		return nil, err
	}

	session := *current
	session.User = &user
	return &session, nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		c.mu.Lock()
		if c.current != nil {
			refreshToken = c.current.RefreshToken
		}
		c.mu.Unlock()
	}
	if refreshToken == "" {
		return nil, &Error{Message: "no refresh token available", Status: http.StatusBadRequest}
	}

	body := map[string]string{"refresh_token": refreshToken}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", body, "", &session); err != nil {
		return nil, err
	}

	c.adopt(&session)
	return &session, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	current := c.current
	c.current = nil
	c.mu.Unlock()

	if current == nil {
		return nil
	}

	return c.do(ctx, http.MethodPost, "/logout", nil, current.AccessToken, nil)
}

// adopt normalizes the grant's expiry and makes it the current session.
func (c *Client) adopt(session *Session) {
	if session.ExpiresAt == 0 {
		session.ExpiresAt = deriveExpiry(session)
	}

	c.mu.Lock()
	c.current = session
	c.mu.Unlock()
}

// deriveExpiry fills in an absolute expiry when the grant carries only a
// relative one, falling back to the exp claim inside the access token.
func deriveExpiry(session *Session) int64 {
	if session.ExpiresIn > 0 {
		return time.Now().Unix() + session.ExpiresIn
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(session.AccessToken, claims); err != nil {
		logger.Warn("failed to parse access token expiry", zap.Error(err))
		return 0
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return exp.Unix()
}

func (c *Client) do(ctx context.Context, method, path string, body any, accessToken string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	if accessToken == "" {
		accessToken = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Error("failed to close response body", zap.Error(closeErr))
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body errorBody
		_ = json.Unmarshal(data, &body)
		return &Error{Message: body.message(), Status: resp.StatusCode}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
