// Package routes holds the navigation loaders and mutations of the
// application and the table that maps them to paths.
package routes

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/daap14/retrospecs/internal/api/validation"
	"github.com/daap14/retrospecs/internal/loader"
	"github.com/daap14/retrospecs/internal/realtime"
)

// Route binds a method and chi pattern to a pipeline and loader.
type Route struct {
	Name     string
	Method   string
	Pattern  string
	Pipeline loader.Pipeline
	Load     loader.Handler
}

// Set builds the application's routes.
type Set struct {
	std      *loader.Standard
	notifier realtime.Notifier
}

// New creates a route set. A nil notifier publishes nothing.
func New(std *loader.Standard, notifier realtime.Notifier) *Set {
	if notifier == nil {
		notifier = realtime.Nop{}
	}
	return &Set{std: std, notifier: notifier}
}

// Pages returns the navigation loaders.
func (s *Set) Pages() []Route {
	authed := s.std.Authenticated()
	public := s.std.Public()

	return []Route{
		{Name: "home", Method: http.MethodGet, Pattern: "/", Pipeline: authed, Load: s.home},
		{Name: "signIn", Method: http.MethodGet, Pattern: "/sign-in", Pipeline: public, Load: s.signIn},
		{Name: "authCallback", Method: http.MethodGet, Pattern: "/auth/callback", Pipeline: public, Load: s.authCallback},
		{Name: "authSignIn", Method: http.MethodGet, Pattern: "/auth/sign-in", Pipeline: public, Load: s.startSignIn},
		{Name: "authSignOut", Method: http.MethodPost, Pattern: "/auth/sign-out", Pipeline: public, Load: s.signOut},
		{Name: "org", Method: http.MethodGet, Pattern: "/orgs/{orgId}", Pipeline: authed, Load: s.org},
		{Name: "orgMembers", Method: http.MethodGet, Pattern: "/orgs/{orgId}/members", Pipeline: authed, Load: s.orgMembers},
		{Name: "team", Method: http.MethodGet, Pattern: "/orgs/{orgId}/teams/{teamId}", Pipeline: authed, Load: s.team},
		{Name: "teamMembers", Method: http.MethodGet, Pattern: "/orgs/{orgId}/teams/{teamId}/members", Pipeline: authed, Load: s.teamMembers},
		{Name: "sprint", Method: http.MethodGet, Pattern: "/orgs/{orgId}/teams/{teamId}/sprints/{sprintId}", Pipeline: authed, Load: s.sprint},
	}
}

// Mutations returns the write endpoints, relative to the API prefix.
func (s *Set) Mutations() []Route {
	authed := s.std.Authenticated()

	return []Route{
		{Name: "createTeam", Method: http.MethodPost, Pattern: "/orgs/{orgId}/teams", Pipeline: authed, Load: s.createTeam},
		{Name: "createInvite", Method: http.MethodPost, Pattern: "/orgs/{orgId}/invites", Pipeline: authed, Load: s.createInvite},
		{Name: "deleteOrg", Method: http.MethodDelete, Pattern: "/orgs/{orgId}", Pipeline: authed, Load: s.deleteOrg},
	}
}

// params parses the named route params or returns an Invalid outcome.
func params(rc *loader.RequestContext, names ...string) ([]int64, *loader.Outcome) {
	ids, errs := validation.ParseIDs(rc.Params, names...)
	if len(errs) > 0 {
		out := loader.Invalid(errs...)
		return nil, &out
	}
	return ids, nil
}

// fetchAll runs fns concurrently and returns the first error.
func fetchAll(ctx context.Context, fns ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}

// prefetchAll runs fns concurrently and waits for them.
func prefetchAll(ctx context.Context, fns ...func(context.Context)) {
	var g errgroup.Group
	for _, fn := range fns {
		fn := fn
		g.Go(func() error {
			fn(ctx)
			return nil
		})
	}
	_ = g.Wait()
}
