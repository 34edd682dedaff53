package provider

import "context"

// Provider is the identity provider surface the auth service consumes. The
// remote service is opaque: it verifies credentials, brokers OAuth
// handshakes, and issues, refreshes, and revokes tokens.
type Provider interface {
	// SignInWithPassword verifies email credentials and returns a session
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new user, carrying optional metadata through
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Session, error)

	// SignInWithOAuth returns the hosted authorization URL for the provider
	SignInWithOAuth(ctx context.Context, opts OAuthOptions) (string, error)

	// SetSession validates a token pair and establishes a server-backed session
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)

	// GetSession returns the live session, or nil when none is established
	GetSession(ctx context.Context) (*Session, error)

	// RefreshSession exchanges a refresh token for a new session. An empty
	// token redeems the current session's refresh token.
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)

	// SignOut revokes the current session with the provider
	SignOut(ctx context.Context) error
}
