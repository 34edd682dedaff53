package provider

import "fmt"

// Session is the provider's token grant as returned by the token endpoints.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// User is the provider's identity record. Display name and avatar live in
// the free-form metadata map, under provider-dependent keys.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// OAuthOptions configures a hosted OAuth authorization request.
type OAuthOptions struct {
	Provider   string
	RedirectTo string
	Scopes     string
}

// Error is a rejected provider request.
type Error struct {
	Message string
	Status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider: %s (status %d)", e.Message, e.Status)
}

// errorBody covers the error shapes the provider returns across endpoints.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (b errorBody) message() string {
	switch {
	case b.ErrorDescription != "":
		return b.ErrorDescription
	case b.Msg != "":
		return b.Msg
	case b.Message != "":
		return b.Message
	case b.Error != "":
		return b.Error
	}
	return "request rejected"
}
