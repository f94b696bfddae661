package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotAuthenticated is returned by EnsureAuthenticated when the request has
// no usable session. Loaders turn it into a redirect to the sign-in page.
var ErrNotAuthenticated = errors.New("not authenticated")

// SignInPath is where unauthenticated navigations are sent.
const SignInPath = "/sign-in"

// UserGetter resolves the session user of a request.
type UserGetter interface {
	GetUser(ctx context.Context) (*User, error)
}

// EnsureAuthenticated returns the session user or ErrNotAuthenticated. Backend
// failures are reported the same way as a missing session.
func EnsureAuthenticated(ctx context.Context, client UserGetter) (*User, error) {
	user, err := client.GetUser(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSession) && !errors.Is(err, ErrInvalidSession) {
			slog.Warn("session lookup failed", "error", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}
