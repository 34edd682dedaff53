package flow

import (
	"context"
	"errors"
)

// ErrRedirectPending is returned by the web flow: the browser has been sent
// to the provider and the session will arrive through the redirect callback
// entry point, not through this call.
var ErrRedirectPending = errors.New("flow: oauth redirect initiated")

// ErrCancelled is returned when the interactive flow is dismissed before
// completing.
var ErrCancelled = errors.New("flow: authorization cancelled")

// Flow runs the browser-mediated part of an OAuth sign-in.
type Flow interface {
	// RedirectURI returns the redirect target the authorization URL must be
	// bound to.
	RedirectURI() string

	// Authorize sends the user to authURL and blocks until the provider
	// redirects back. It returns the full callback URL carrying the token
	// parameters.
	Authorize(ctx context.Context, authURL string) (string, error)
}
