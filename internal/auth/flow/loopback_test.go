package flow

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dealhunt/dealhunt-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlow(t *testing.T) *LoopbackFlow {
	t.Helper()
	return NewLoopbackFlow(&config.OAuthConfig{
		RedirectHost: "127.0.0.1",
		RedirectPort: 0,
		Timeout:      5 * time.Second,
	})
}

func TestLoopbackAuthorizeReturnsCallbackURL(t *testing.T) {
	authFlow := newTestFlow(t)

	var openedURL string
	authFlow.open = func(url string) error {
		openedURL = url
		go func() {
			resp, err := http.Get(authFlow.RedirectURI() + "?access_token=tok1&refresh_token=r1")
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
		return nil
	}

	callbackURL, err := authFlow.Authorize(context.Background(), "https://idp.example.com/authorize")
	require.NoError(t, err)

	assert.Equal(t, "https://idp.example.com/authorize", openedURL)
	assert.Contains(t, callbackURL, "access_token=tok1")
	assert.Contains(t, callbackURL, "refresh_token=r1")
}

func TestLoopbackServesFragmentForwarder(t *testing.T) {
	authFlow := newTestFlow(t)

	bodies := make(chan string, 1)
	authFlow.open = func(string) error {
		go func() {
			// The provider's redirect lands with the tokens in the fragment,
			// which the browser does not send; the first request has no query.
			resp, err := http.Get(authFlow.RedirectURI())
			if err != nil {
				return
			}
			page, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			bodies <- string(page)

			resp, err = http.Get(authFlow.RedirectURI() + "?access_token=tok1")
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
		return nil
	}

	_, err := authFlow.Authorize(context.Background(), "https://idp.example.com/authorize")
	require.NoError(t, err)

	select {
	case page := <-bodies:
		assert.True(t, strings.Contains(page, "location.replace"), "forwarder page rewrites the fragment into a query")
	case <-time.After(time.Second):
		t.Fatal("forwarder page never served")
	}
}

func TestLoopbackAuthorizeCancelled(t *testing.T) {
	authFlow := newTestFlow(t)
	authFlow.open = func(string) error { return nil }

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := authFlow.Authorize(ctx, "https://idp.example.com/authorize")
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestLoopbackAuthorizeTimesOut(t *testing.T) {
	authFlow := NewLoopbackFlow(&config.OAuthConfig{
		RedirectHost: "127.0.0.1",
		Timeout:      30 * time.Millisecond,
	})
	authFlow.open = func(string) error { return nil }

	_, err := authFlow.Authorize(context.Background(), "https://idp.example.com/authorize")
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestRedirectFlowNeverReturnsSession(t *testing.T) {
	redirectFlow := NewRedirectFlow("https://app.example.com/auth/callback")

	var openedURL string
	redirectFlow.open = func(url string) error {
		openedURL = url
		return nil
	}

	_, err := redirectFlow.Authorize(context.Background(), "https://idp.example.com/authorize")
	assert.ErrorIs(t, err, ErrRedirectPending)
	assert.Equal(t, "https://idp.example.com/authorize", openedURL)
	assert.Equal(t, "https://app.example.com/auth/callback", redirectFlow.RedirectURI())
}
