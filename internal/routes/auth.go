package routes

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/daap14/retrospecs/internal/auth"
	"github.com/daap14/retrospecs/internal/loader"
	"github.com/daap14/retrospecs/internal/query"
)

// SignInData is returned by the sign-in page loader.
type SignInData struct {
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"errorDescription,omitempty"`
	SignInURL        string `json:"signInUrl"`
}

func (s *Set) signIn(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	q := rc.Request.URL.Query()
	data := SignInData{
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
		SignInURL:        "/auth/sign-in?" + url.Values{"next": {SafeNext(q.Get("next"))}}.Encode(),
	}
	return loader.Continue(&query.Payload[SignInData]{Data: data}), nil
}

// authCallback completes the OAuth flow. It always redirects.
func (s *Set) authCallback(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	q := rc.Request.URL.Query()

	errCode, errDesc := q.Get("error"), q.Get("error_description")
	if errCode != "" || errDesc != "" {
		return signInError(errCode, errDesc), nil
	}

	code := q.Get("code")
	if code == "" {
		return signInError("No code provided", ""), nil
	}

	next := SafeNext(q.Get("next"))
	if err := rc.Backend.Auth.ExchangeCodeForSession(ctx, code, next); err != nil {
		slog.Warn("exchanging auth code failed", "error", err)
		return signInError(err.Error(), ""), nil
	}
	return loader.Redirect(next), nil
}

// startSignIn redirects to the identity provider.
func (s *Set) startSignIn(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	target, err := rc.Backend.Auth.SignInURL(SafeNext(rc.Request.URL.Query().Get("next")))
	if err != nil {
		slog.Error("starting sign-in failed", "error", err)
		return signInError("An error occurred", err.Error()), nil
	}
	return loader.Redirect(target), nil
}

func (s *Set) signOut(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	if err := rc.Backend.Auth.SignOut(ctx); err != nil {
		return loader.Outcome{}, err
	}
	return loader.Redirect(auth.SignInPath), nil
}

func signInError(code, description string) loader.Outcome {
	v := url.Values{}
	if code != "" {
		v.Set("error", code)
	}
	if description != "" {
		v.Set("error_description", description)
	}
	return loader.RedirectWith(auth.SignInPath, v)
}

// SafeNext returns next when it is a same-site absolute path and "/"
// otherwise.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
