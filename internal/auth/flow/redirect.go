package flow

import (
	"context"

	"github.com/pkg/browser"
)

// RedirectFlow is the web-runtime flow: it performs a full-page redirect to
// the provider and never returns a session synchronously. The session
// arrives later through the service's redirect completion entry point.
type RedirectFlow struct {
	redirectURI string
	open        func(url string) error
}

// NewRedirectFlow creates a redirect flow bound to the given redirect URI
func NewRedirectFlow(redirectURI string) *RedirectFlow {
	return &RedirectFlow{
		redirectURI: redirectURI,
		open:        browser.OpenURL,
	}
}

func (f *RedirectFlow) RedirectURI() string {
	return f.redirectURI
}

func (f *RedirectFlow) Authorize(_ context.Context, authURL string) (string, error) {
	if err := f.open(authURL); err != nil {
		return "", err
	}
	return "", ErrRedirectPending
}
