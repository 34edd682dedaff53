package models

// User is the identity record owned by the session. It is immutable from the
// app's point of view; only identity-provider responses replace it.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Session is the bearer-credential pair plus expiry and the embedded user.
// ExpiresAt is the absolute epoch-seconds expiry of the access token.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// AuthError is the unified error contract surfaced to callers and captured
// into AuthState for reactive display.
type AuthError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Status  int    `json:"status,omitempty"`
}

func (e *AuthError) Error() string {
	return e.Message
}

// Error codes used across the auth core.
const (
	CodeAuthError = "AUTH_ERROR"
	CodeInitError = "INIT_ERROR"
)

// AuthState is the process-local aggregate exposed to the presentation
// layer. User and Session are set and cleared together.
type AuthState struct {
	User    *User
	Session *Session
	Loading bool
	Error   *AuthError
}

// IsAuthenticated reports whether the state carries a live session.
func (s AuthState) IsAuthenticated() bool {
	return s.Session != nil && s.User != nil
}

// OAuthProviderInfo describes a supported OAuth provider for display.
type OAuthProviderInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Icon        string `json:"icon"`
}
