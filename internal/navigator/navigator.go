// Package navigator is the long-lived client side of a navigation: it calls
// route loaders over HTTP and hydrates their snapshots into one persistent
// query cache.
package navigator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/daap14/retrospecs/internal/api/response"
	"github.com/daap14/retrospecs/internal/query"
	"github.com/daap14/retrospecs/internal/realtime"
)

// Error is a loader failure reported by the server.
type Error struct {
	Status  int
	Code    string
	Message string
	Details json.RawMessage
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Result is the outcome of one navigation.
type Result struct {
	// Path is where the navigation ended after same-site redirects.
	Path string
	// Redirect is set when the server sent the navigation off-site.
	Redirect string
	// Data is the loader data without the snapshot.
	Data json.RawMessage
	// Hydrated is the number of snapshot entries in the response.
	Hydrated int
}

// Navigator performs navigations against one server.
type Navigator struct {
	base   *url.URL
	client *http.Client
	cache  *query.Client
	cookie *http.Cookie
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithHTTPClient replaces the HTTP client. Its redirect policy is kept.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Navigator) { n.client = c }
}

// WithCache sets the query cache payloads hydrate into.
func WithCache(c *query.Client) Option {
	return func(n *Navigator) { n.cache = c }
}

// WithSession sends an existing session cookie with every request.
func WithSession(cookieName, token string) Option {
	return func(n *Navigator) {
		n.cookie = &http.Cookie{Name: cookieName, Value: token}
	}
}

// New creates a Navigator for baseURL.
func New(baseURL string, opts ...Option) (*Navigator, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	n := &Navigator{base: base}
	for _, opt := range opts {
		opt(n)
	}

	if n.cache == nil {
		n.cache = query.NewClient()
	}
	if n.client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		n.client = &http.Client{Jar: jar, Timeout: 30 * time.Second}
	}
	n.client.CheckRedirect = n.checkRedirect

	return n, nil
}

// Cache returns the persistent query cache.
func (n *Navigator) Cache() *query.Client {
	return n.cache
}

// Navigate loads path, following same-site redirects, and hydrates the
// response snapshot into the cache.
func (n *Navigator) Navigate(ctx context.Context, path string) (*Result, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing path %q: %w", path, err)
	}
	target := n.base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if n.cookie != nil {
		req.AddCookie(n.cookie)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", target, err)
	}
	defer resp.Body.Close()

	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", target, err)
	}

	if env.Error != nil {
		return nil, &Error{Status: resp.StatusCode, Code: env.Error.Code, Message: env.Error.Message, Details: env.Error.Details}
	}

	if resp.StatusCode == http.StatusSeeOther {
		var rd response.RedirectData
		if err := json.Unmarshal(env.Data, &rd); err != nil {
			return nil, fmt.Errorf("decoding redirect from %s: %w", target, err)
		}
		return &Result{Path: resp.Request.URL.RequestURI(), Redirect: rd.Redirect}, nil
	}

	var payload query.Payload[json.RawMessage]
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, fmt.Errorf("decoding payload from %s: %w", target, err)
	}

	res := &Result{Path: resp.Request.URL.RequestURI()}
	if payload.DehydratedState != nil {
		res.Hydrated = len(payload.DehydratedState.Queries)
	}
	res.Data = query.EnsureHydrated(&payload, n.cache)
	return res, nil
}

// Load navigates to path and decodes the loader data into T.
func Load[T any](ctx context.Context, n *Navigator, path string) (T, *Result, error) {
	var out T
	res, err := n.Navigate(ctx, path)
	if err != nil {
		return out, nil, err
	}
	if res.Redirect != "" {
		return out, res, fmt.Errorf("navigation to %s left the site for %s", path, res.Redirect)
	}
	if err := json.Unmarshal(res.Data, &out); err != nil {
		return out, res, fmt.Errorf("decoding data of %s: %w", res.Path, err)
	}
	return out, res, nil
}

// Watch invalidates cache entries as changes arrive until ctx is done.
func (n *Navigator) Watch(ctx context.Context, sub *realtime.Subscriber, ready chan<- struct{}) error {
	err := sub.Run(ctx, ready, realtime.Invalidator(n.cache))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// checkRedirect follows redirects on the same host and stops at others so
// the caller sees the target.
func (n *Navigator) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	if req.URL.Host != n.base.Host {
		return http.ErrUseLastResponse
	}
	if n.cookie != nil {
		req.AddCookie(n.cookie)
	}
	return nil
}
