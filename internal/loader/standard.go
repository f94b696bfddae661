package loader

import (
	"context"
	"errors"

	"github.com/daap14/retrospecs/internal/auth"
	"github.com/daap14/retrospecs/internal/backend"
	"github.com/daap14/retrospecs/internal/query"
)

// Standard holds the shared units every authenticated route composes.
type Standard struct {
	Backend    *Middleware
	User       *Middleware
	QueryCache *Middleware
}

// NewStandardChain builds the standard units. Each request gets its own
// backend client and its own query client.
func NewStandardChain(factory backend.Factory, opts ...query.Option) *Standard {
	s := &Standard{}

	s.Backend = &Middleware{
		Name: "attachBackendClient",
		Run: func(ctx context.Context, rc *RequestContext, next Handler) (Outcome, error) {
			out := *rc
			out.Backend = factory.NewClient(rc.Writer, rc.Request)
			return next(ctx, &out)
		},
	}

	s.User = &Middleware{
		Name: "attachAuthenticatedUser",
		Deps: []*Middleware{s.Backend},
		Run: func(ctx context.Context, rc *RequestContext, next Handler) (Outcome, error) {
			user, err := auth.EnsureAuthenticated(ctx, rc.Backend.Auth)
			if err != nil {
				if errors.Is(err, auth.ErrNotAuthenticated) {
					return Redirect(auth.SignInPath), nil
				}
				return Outcome{}, err
			}
			out := *rc
			out.User = user
			return next(ctx, &out)
		},
	}

	s.QueryCache = &Middleware{
		Name: "attachQueryCache",
		Run: func(ctx context.Context, rc *RequestContext, next Handler) (Outcome, error) {
			out := *rc
			out.Query = query.NewClient(opts...)
			return next(ctx, &out)
		},
	}

	return s
}

// Authenticated is the chain for routes that need a signed-in user and a
// query cache.
func (s *Standard) Authenticated() Pipeline {
	return Chain(s.User, s.QueryCache)
}

// Public is the chain for routes that only need the backend client.
func (s *Standard) Public() Pipeline {
	return Chain(s.Backend)
}
