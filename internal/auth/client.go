package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrNoSession is returned by Client.GetUser when the request carries no session cookie.
var ErrNoSession = errors.New("no session")

// ErrProviderNotConfigured is returned when no identity provider is set up.
var ErrProviderNotConfigured = errors.New("sign-in provider is not configured")

// ErrSignInExpired is returned when the callback lacks the PKCE verifier
// set when the sign-in started.
var ErrSignInExpired = errors.New("sign-in attempt expired, please try again")

// ErrStateMismatch is returned when the callback state does not match the
// one issued with the sign-in URL.
var ErrStateMismatch = errors.New("sign-in state does not match")

const (
	verifierCookie = "retrospecs_pkce"
	stateCookie    = "retrospecs_oauth_state"
)

// CookieConfig controls the cookies the request client reads and writes.
type CookieConfig struct {
	SessionName string
	Secure      bool
	MaxAge      time.Duration
}

// Client is the request-scoped view of authentication. It reads the session
// cookie of one request and writes cookies to its response.
type Client struct {
	svc         *Service
	provider    IdentityProvider
	cookies     CookieConfig
	redirectURL string
	w           http.ResponseWriter
	r           *http.Request

	mu       sync.Mutex
	resolved bool
	user     *User
	err      error
}

// NewClient binds the auth service to a single request. provider may be nil
// when sign-in is not configured.
func NewClient(svc *Service, provider IdentityProvider, cookies CookieConfig, redirectURL string, w http.ResponseWriter, r *http.Request) *Client {
	return &Client{svc: svc, provider: provider, cookies: cookies, redirectURL: redirectURL, w: w, r: r}
}

// GetUser returns the user of the request's session. The lookup runs at most
// once per client.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resolved {
		return c.user, c.err
	}

	cookie, err := c.r.Cookie(c.cookies.SessionName)
	if err != nil || cookie.Value == "" {
		c.user, c.err = nil, ErrNoSession
	} else {
		c.user, c.err = c.svc.Authenticate(ctx, cookie.Value)
	}
	if c.err != nil && !errors.Is(c.err, ErrInvalidSession) && !errors.Is(c.err, ErrNoSession) {
		// Transient backend failures are not remembered.
		return nil, c.err
	}
	c.resolved = true
	return c.user, c.err
}

// SignInURL starts an OAuth sign-in that returns to next after the callback.
func (c *Client) SignInURL(next string) (string, error) {
	if c.provider == nil {
		return "", ErrProviderNotConfigured
	}

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	c.setFlowCookie(verifierCookie, verifier)
	c.setFlowCookie(stateCookie, state)

	return c.provider.AuthCodeURL(state, verifier, c.callbackURL(next)), nil
}

// ExchangeCodeForSession completes the OAuth flow and sets the session cookie.
func (c *Client) ExchangeCodeForSession(ctx context.Context, code, next string) error {
	if c.provider == nil {
		return ErrProviderNotConfigured
	}

	verifier, state := c.flowCookie(verifierCookie), c.flowCookie(stateCookie)
	c.clearFlowCookies()
	if verifier == "" || state == "" {
		return ErrSignInExpired
	}
	if subtle.ConstantTimeCompare([]byte(state), []byte(c.r.URL.Query().Get("state"))) != 1 {
		return ErrStateMismatch
	}

	identity, err := c.provider.Exchange(ctx, code, verifier, c.callbackURL(next))
	if err != nil {
		return err
	}

	user, rawToken, err := c.svc.SignIn(ctx, *identity)
	if err != nil {
		return err
	}

	http.SetCookie(c.w, &http.Cookie{
		Name:     c.cookies.SessionName,
		Value:    rawToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.cookies.MaxAge.Seconds()),
	})

	c.mu.Lock()
	c.user, c.err, c.resolved = user, nil, true
	c.mu.Unlock()

	return nil
}

// setFlowCookie stores a short-lived value that only the callback reads.
func (c *Client) setFlowCookie(name, value string) {
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   c.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})
}

func (c *Client) flowCookie(name string) string {
	cookie, err := c.r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// clearFlowCookies makes the verifier and state single use.
func (c *Client) clearFlowCookies() {
	for _, name := range []string{verifierCookie, stateCookie} {
		http.SetCookie(c.w, &http.Cookie{Name: name, Path: "/auth", MaxAge: -1})
	}
}

// SignOut revokes the session and clears the cookie.
func (c *Client) SignOut(ctx context.Context) error {
	http.SetCookie(c.w, &http.Cookie{Name: c.cookies.SessionName, Path: "/", MaxAge: -1})

	cookie, err := c.r.Cookie(c.cookies.SessionName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	err = c.svc.SignOut(ctx, cookie.Value)
	if errors.Is(err, ErrInvalidSession) || errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}

func (c *Client) callbackURL(next string) string {
	if next == "" {
		return c.redirectURL
	}
	u, err := url.Parse(c.redirectURL)
	if err != nil {
		return c.redirectURL
	}
	q := u.Query()
	q.Set("next", next)
	u.RawQuery = q.Encode()
	return u.String()
}
