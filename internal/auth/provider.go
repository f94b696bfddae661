package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// IdentityProvider is the external OAuth provider users sign in with.
type IdentityProvider interface {
	// AuthCodeURL builds the provider URL the browser is sent to. verifier is
	// the PKCE code verifier kept by the caller for the exchange.
	AuthCodeURL(state, verifier, redirectURL string) string
	// Exchange trades an authorization code for the asserted identity.
	Exchange(ctx context.Context, code, verifier, redirectURL string) (*Identity, error)
}

// OIDCProvider implements IdentityProvider with OpenID Connect.
type OIDCProvider struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

// OIDCConfig holds the client registration at the identity provider.
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
}

// NewOIDCProvider discovers the issuer and builds a provider.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig) (*OIDCProvider, error) {
	if cfg.IssuerURL == "" || cfg.ClientID == "" {
		return nil, errors.New("OIDC issuer URL and client ID are required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discovering OIDC provider: %w", err)
	}

	return &OIDCProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// AuthCodeURL returns the authorization endpoint URL with a S256 PKCE challenge.
func (p *OIDCProvider) AuthCodeURL(state, verifier, redirectURL string) string {
	return p.oauth2Config.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("redirect_uri", redirectURL),
	)
}

// Exchange trades the code for tokens and verifies the ID token.
func (p *OIDCProvider) Exchange(ctx context.Context, code, verifier, redirectURL string) (*Identity, error) {
	if verifier == "" {
		return nil, errors.New("exchanging code: PKCE verifier is required")
	}

	token, err := p.oauth2Config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("redirect_uri", redirectURL),
		oauth2.VerifierOption(verifier),
	)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("token response has no id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verifying id token: %w", err)
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decoding id token claims: %w", err)
	}

	return &Identity{Subject: idToken.Subject, Email: claims.Email, Name: claims.Name}, nil
}
