// Package backend assembles the request-scoped client loaders read through:
// the session-bound auth client plus the table repositories.
package backend

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daap14/retrospecs/internal/auth"
	"github.com/daap14/retrospecs/internal/org"
	"github.com/daap14/retrospecs/internal/profile"
	"github.com/daap14/retrospecs/internal/sprint"
	"github.com/daap14/retrospecs/internal/team"
)

// AuthClient is the session view of one request.
type AuthClient interface {
	GetUser(ctx context.Context) (*auth.User, error)
	SignInURL(next string) (string, error)
	ExchangeCodeForSession(ctx context.Context, code, next string) error
	SignOut(ctx context.Context) error
}

// Client is the backend as seen by one request.
type Client struct {
	Auth     AuthClient
	Orgs     org.Repository
	Teams    team.Repository
	Sprints  sprint.Repository
	Profiles profile.Repository
}

// Factory builds a Client for a request.
type Factory interface {
	NewClient(w http.ResponseWriter, r *http.Request) *Client
}

// Repositories groups the shared, request-independent data access.
type Repositories struct {
	Orgs     org.Repository
	Teams    team.Repository
	Sprints  sprint.Repository
	Profiles profile.Repository
}

// NewPostgresRepositories builds all repositories on one pool.
func NewPostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Orgs:     org.NewRepository(pool),
		Teams:    team.NewRepository(pool),
		Sprints:  sprint.NewRepository(pool),
		Profiles: profile.NewRepository(pool),
	}
}

// SessionFactory builds clients whose auth reads the session cookie.
type SessionFactory struct {
	repos       Repositories
	svc         *auth.Service
	provider    auth.IdentityProvider
	cookies     auth.CookieConfig
	redirectURL string
}

// NewSessionFactory creates a Factory. provider may be nil when sign-in is
// not configured; existing sessions still resolve.
func NewSessionFactory(repos Repositories, svc *auth.Service, provider auth.IdentityProvider, cookies auth.CookieConfig, redirectURL string) *SessionFactory {
	return &SessionFactory{
		repos:       repos,
		svc:         svc,
		provider:    provider,
		cookies:     cookies,
		redirectURL: redirectURL,
	}
}

// NewClient binds the repositories and the request's session.
func (f *SessionFactory) NewClient(w http.ResponseWriter, r *http.Request) *Client {
	return &Client{
		Auth:     auth.NewClient(f.svc, f.provider, f.cookies, f.redirectURL, w, r),
		Orgs:     f.repos.Orgs,
		Teams:    f.repos.Teams,
		Sprints:  f.repos.Sprints,
		Profiles: f.repos.Profiles,
	}
}
