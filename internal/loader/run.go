package loader

import (
	"context"
	"errors"

	"github.com/daap14/retrospecs/internal/auth"
)

// Run executes h behind p. A not-authenticated error from anywhere in the
// chain or loader becomes a redirect to the sign-in page.
func Run(ctx context.Context, p Pipeline, rc *RequestContext, h Handler) (Outcome, error) {
	out, err := p.Then(h)(ctx, rc)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return Redirect(auth.SignInPath), nil
		}
		return Outcome{}, err
	}
	return out, nil
}
