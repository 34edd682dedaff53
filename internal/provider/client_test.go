package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dealhunt/dealhunt-go/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&config.ProviderConfig{URL: server.URL, AnonKey: "anon-key"})
}

func grantJSON(t *testing.T, accessToken string) map[string]any {
	t.Helper()
	return map[string]any{
		"access_token":  accessToken,
		"token_type":    "bearer",
		"expires_in":    3600,
		"expires_at":    time.Now().Unix() + 3600,
		"refresh_token": "r1",
		"user": map[string]any{
			"id":    "u1",
			"email": "a@b.com",
			"user_metadata": map[string]any{
				"full_name": "Ada Lovelace",
			},
		},
	}
}

func TestSignInWithPassword(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@b.com", body["email"])
		require.Equal(t, "secret", body["password"])

		_ = json.NewEncoder(w).Encode(grantJSON(t, "tok1"))
	}))

	grant, err := client.SignInWithPassword(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok1", grant.AccessToken)
	assert.Equal(t, "r1", grant.RefreshToken)
	require.NotNil(t, grant.User)
	assert.Equal(t, "u1", grant.User.ID)
	assert.Equal(t, "Ada Lovelace", grant.User.UserMetadata["full_name"])
}

func TestSignInWithPasswordRejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
	}))

	_, err := client.SignInWithPassword(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)

	provErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, "Invalid login credentials", provErr.Message)
	assert.Equal(t, http.StatusBadRequest, provErr.Status)
}

func TestSignUpCarriesMetadata(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/signup", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		data, ok := body["data"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "Ada", data["full_name"])

		_ = json.NewEncoder(w).Encode(grantJSON(t, "tok1"))
	}))

	_, err := client.SignUp(context.Background(), "a@b.com", "secret", map[string]any{"full_name": "Ada"})
	require.NoError(t, err)
}

func TestSignInWithOAuthBuildsAuthorizeURL(t *testing.T) {
	client := NewClient(&config.ProviderConfig{URL: "https://idp.example.com", AnonKey: "anon"})

	authURL, err := client.SignInWithOAuth(context.Background(), OAuthOptions{
		Provider:   "google",
		RedirectTo: "http://127.0.0.1:4545/auth/callback",
		Scopes:     "email profile",
	})
	require.NoError(t, err)

	assert.Contains(t, authURL, "https://idp.example.com/auth/v1/authorize?")
	assert.Contains(t, authURL, "provider=google")
	assert.Contains(t, authURL, "scopes=email+profile")
	assert.Contains(t, authURL, "redirect_to=http%3A%2F%2F127.0.0.1%3A4545%2Fauth%2Fcallback")
}

func TestSetSession(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/user", r.URL.Path)
		require.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{"id": "u1", "email": "a@b.com"})
	}))

	grant, err := client.SetSession(context.Background(), token, "r1")
	require.NoError(t, err)
	assert.Equal(t, token, grant.AccessToken)
	assert.Equal(t, "r1", grant.RefreshToken)
	require.NotNil(t, grant.User)
	assert.Equal(t, "u1", grant.User.ID)

	// Expiry was derived from the token's exp claim.
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), grant.ExpiresAt, 5)
}

func TestGetSessionWithoutCurrentSession(t *testing.T) {
	client := NewClient(&config.ProviderConfig{URL: "https://idp.example.com", AnonKey: "anon"})

	grant, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, grant)
}

func TestRefreshSession(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "r1", body["refresh_token"])

		response := grantJSON(t, "tok2")
		response["refresh_token"] = "r2"
		_ = json.NewEncoder(w).Encode(response)
	}))

	grant, err := client.RefreshSession(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "tok2", grant.AccessToken)
	assert.Equal(t, "r2", grant.RefreshToken)
}

func TestRefreshSessionWithoutToken(t *testing.T) {
	client := NewClient(&config.ProviderConfig{URL: "https://idp.example.com", AnonKey: "anon"})

	_, err := client.RefreshSession(context.Background(), "")
	require.Error(t, err)
}

func TestSignOutRevokesAndForgets(t *testing.T) {
	var loggedOut bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			_ = json.NewEncoder(w).Encode(grantJSON(t, "tok1"))
		case "/auth/v1/logout":
			loggedOut = true
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	_, err := client.SignInWithPassword(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)

	require.NoError(t, client.SignOut(context.Background()))
	assert.True(t, loggedOut)

	grant, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, grant)
}

func TestDeriveExpiryFromExpiresIn(t *testing.T) {
	session := &Session{AccessToken: "opaque", ExpiresIn: 600}
	assert.InDelta(t, time.Now().Unix()+600, deriveExpiry(session), 5)
}

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": expiry.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}
