package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/retrospecs/internal/auth"
)

// newIssuer serves OIDC discovery and counts token endpoint calls.
func newIssuer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                srv.URL,
			"authorization_endpoint":                srv.URL + "/authorize",
			"token_endpoint":                        srv.URL + "/token",
			"jwks_uri":                              srv.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	})
	return srv, &tokenCalls
}

func TestOIDCProvider_AuthCodeURL(t *testing.T) {
	srv, _ := newIssuer(t)
	p, err := auth.NewOIDCProvider(context.Background(), auth.OIDCConfig{IssuerURL: srv.URL, ClientID: "retrospecs"})
	require.NoError(t, err)

	target, err := url.Parse(p.AuthCodeURL("st4te", "v3rifier", testRedirectURL))
	require.NoError(t, err)

	q := target.Query()
	assert.Equal(t, srv.URL+"/authorize", target.Scheme+"://"+target.Host+target.Path)
	assert.Equal(t, "st4te", q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, testRedirectURL, q.Get("redirect_uri"))
}

func TestOIDCProvider_ExchangeRequiresVerifier(t *testing.T) {
	srv, tokenCalls := newIssuer(t)
	p, err := auth.NewOIDCProvider(context.Background(), auth.OIDCConfig{IssuerURL: srv.URL, ClientID: "retrospecs"})
	require.NoError(t, err)

	_, err = p.Exchange(context.Background(), "abc", "", testRedirectURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PKCE verifier is required")
	assert.Zero(t, tokenCalls.Load())

	_, err = p.Exchange(context.Background(), "abc", "v3rifier", testRedirectURL)
	require.Error(t, err)
	assert.Positive(t, tokenCalls.Load())
}

func TestNewOIDCProvider_RequiresIssuerAndClient(t *testing.T) {
	_, err := auth.NewOIDCProvider(context.Background(), auth.OIDCConfig{ClientID: "retrospecs"})
	assert.Error(t, err)
}
