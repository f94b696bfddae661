// Package backendtest provides an in-memory backend for loader and handler
// tests.
package backendtest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daap14/retrospecs/internal/auth"
	"github.com/daap14/retrospecs/internal/backend"
	"github.com/daap14/retrospecs/internal/org"
	"github.com/daap14/retrospecs/internal/sprint"
	"github.com/daap14/retrospecs/internal/team"
)

// Store holds table contents and counts repository calls by method name,
// e.g. "orgs.GetByID".
type Store struct {
	mu sync.Mutex

	Orgs         []org.Organization
	Members      []org.Member
	Invites      []org.Invite
	Teams        []team.Team
	TeamMembers  []team.Member
	Sprints      []sprint.Sprint
	Feedback     []sprint.Feedback
	Actions      []sprint.Action
	DisplayNames map[uuid.UUID]string

	// FailWith, when set, is returned by every read.
	FailWith error

	calls  map[string]int
	nextID int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		DisplayNames: make(map[uuid.UUID]string),
		calls:        make(map[string]int),
		nextID:       1000,
	}
}

// Calls returns how often method was invoked.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Client binds the store's repositories to an auth client.
func (s *Store) Client(a backend.AuthClient) *backend.Client {
	return &backend.Client{
		Auth:     a,
		Orgs:     &orgRepo{s},
		Teams:    &teamRepo{s},
		Sprints:  &sprintRepo{s},
		Profiles: &profileRepo{s},
	}
}

// record counts a call and returns the scripted failure. Callers hold s.mu.
func (s *Store) record(method string) error {
	s.calls[method]++
	return s.FailWith
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Factory implements backend.Factory with a fixed auth client.
type Factory struct {
	Store *Store
	Auth  *Auth
}

func (f *Factory) NewClient(w http.ResponseWriter, r *http.Request) *backend.Client {
	return f.Store.Client(f.Auth)
}

// Auth is a scripted backend.AuthClient.
type Auth struct {
	mu sync.Mutex

	User        *auth.User
	Err         error
	SignInBase  string
	ExchangeErr error
	// ExchangeUser becomes the session user after a successful exchange.
	ExchangeUser *auth.User

	GetUserCalls  int
	ExchangedCode string
	SignedOut     bool
}

func (a *Auth) GetUser(ctx context.Context) (*auth.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.GetUserCalls++
	if a.Err != nil {
		return nil, a.Err
	}
	if a.User == nil {
		return nil, auth.ErrNoSession
	}
	return a.User, nil
}

func (a *Auth) SignInURL(next string) (string, error) {
	if a.SignInBase == "" {
		return "", auth.ErrProviderNotConfigured
	}
	return a.SignInBase + "?next=" + next, nil
}

func (a *Auth) ExchangeCodeForSession(ctx context.Context, code, next string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ExchangedCode = code
	if a.ExchangeErr != nil {
		return a.ExchangeErr
	}
	a.User = a.ExchangeUser
	return nil
}

func (a *Auth) SignOut(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.SignedOut = true
	a.User = nil
	return nil
}

type orgRepo struct{ s *Store }

func (r *orgRepo) GetByID(ctx context.Context, id int64) (*org.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("orgs.GetByID"); err != nil {
		return nil, err
	}
	for _, o := range r.s.Orgs {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, org.ErrOrgNotFound
}

func (r *orgRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]org.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("orgs.ListForUser"); err != nil {
		return nil, err
	}
	out := []org.Organization{}
	for _, o := range r.s.Orgs {
		if o.OwnerID == userID || org.FindMember(r.s.Members, o.ID, userID) != nil {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *orgRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("orgs.Delete"); err != nil {
		return err
	}
	for i, o := range r.s.Orgs {
		if o.ID == id {
			r.s.Orgs = append(r.s.Orgs[:i], r.s.Orgs[i+1:]...)
			return nil
		}
	}
	return org.ErrOrgNotFound
}

func (r *orgRepo) GetMember(ctx context.Context, orgID int64, userID uuid.UUID) (*org.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("orgs.GetMember"); err != nil {
		return nil, err
	}
	return org.FindMember(r.s.Members, orgID, userID), nil
}

func (r *orgRepo) ListMembers(ctx context.Context, orgID int64) ([]org.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("orgs.ListMembers"); err != nil {
		return nil, err
	}
	out := []org.Member{}
	for _, m := range r.s.Members {
		if m.OrgID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *orgRepo) CountMembers(ctx context.Context, orgID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("orgs.CountMembers"); err != nil {
		return 0, err
	}
	n := 0
	for _, m := range r.s.Members {
		if m.OrgID == orgID {
			n++
		}
	}
	return n, nil
}

func (r *orgRepo) ListInvites(ctx context.Context, orgID int64) ([]org.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("orgs.ListInvites"); err != nil {
		return nil, err
	}
	out := []org.Invite{}
	for _, inv := range r.s.Invites {
		if inv.OrgID == orgID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *orgRepo) CreateInvite(ctx context.Context, invite *org.Invite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("orgs.CreateInvite"); err != nil {
		return err
	}
	for _, inv := range r.s.Invites {
		if inv.OrgID == invite.OrgID && inv.Email == invite.Email {
			return org.ErrDuplicateInvite
		}
	}
	invite.ID = r.s.id()
	invite.CreatedAt = time.Now().UTC()
	r.s.Invites = append(r.s.Invites, *invite)
	return nil
}

type teamRepo struct{ s *Store }

func (r *teamRepo) Create(ctx context.Context, t *team.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("teams.Create"); err != nil {
		return err
	}
	for _, existing := range r.s.Teams {
		if existing.OrgID == t.OrgID && existing.Name == t.Name {
			return team.ErrDuplicateTeamName
		}
	}
	t.ID = r.s.id()
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	r.s.Teams = append(r.s.Teams, *t)
	return nil
}

func (r *teamRepo) GetByID(ctx context.Context, id int64) (*team.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("teams.GetByID"); err != nil {
		return nil, err
	}
	for _, t := range r.s.Teams {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, team.ErrTeamNotFound
}

func (r *teamRepo) ListByOrg(ctx context.Context, orgID int64) ([]team.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("teams.ListByOrg"); err != nil {
		return nil, err
	}
	out := []team.Team{}
	for _, t := range r.s.Teams {
		if t.OrgID == orgID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *teamRepo) CountByOrg(ctx context.Context, orgID int64) (int, error) {
	teams, err := r.ListByOrg(ctx, orgID)
	return len(teams), err
}

func (r *teamRepo) ListMembers(ctx context.Context, teamID int64) ([]team.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("teams.ListMembers"); err != nil {
		return nil, err
	}
	out := []team.Member{}
	for _, m := range r.s.TeamMembers {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *teamRepo) CountMembers(ctx context.Context, teamID int64) (int, error) {
	members, err := r.ListMembers(ctx, teamID)
	return len(members), err
}

type sprintRepo struct{ s *Store }

func (r *sprintRepo) GetByID(ctx context.Context, id int64) (*sprint.Sprint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("sprints.GetByID"); err != nil {
		return nil, err
	}
	for _, sp := range r.s.Sprints {
		if sp.ID == id {
			return &sp, nil
		}
	}
	return nil, sprint.ErrSprintNotFound
}

func (r *sprintRepo) ListForTeam(ctx context.Context, teamID int64) ([]sprint.Sprint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("sprints.ListForTeam"); err != nil {
		return nil, err
	}
	out := []sprint.Sprint{}
	for _, sp := range r.s.Sprints {
		if sp.TeamID == teamID {
			out = append(out, sp)
		}
	}
	return out, nil
}

func (r *sprintRepo) CountForTeam(ctx context.Context, teamID int64) (int, error) {
	sprints, err := r.ListForTeam(ctx, teamID)
	return len(sprints), err
}

func (r *sprintRepo) ListFeedback(ctx context.Context, sprintID int64, category string) ([]sprint.Feedback, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("sprints.ListFeedback"); err != nil {
		return nil, err
	}
	out := []sprint.Feedback{}
	for _, f := range r.s.Feedback {
		if f.SprintID == sprintID && f.Category == category {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *sprintRepo) ListActions(ctx context.Context, sprintID int64) ([]sprint.Action, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("sprints.ListActions"); err != nil {
		return nil, err
	}
	out := []sprint.Action{}
	for _, a := range r.s.Actions {
		if a.SprintID == sprintID {
			out = append(out, a)
		}
	}
	return out, nil
}

type profileRepo struct{ s *Store }

func (r *profileRepo) DisplayName(ctx context.Context, userID uuid.UUID) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record("profiles.DisplayName"); err != nil {
		return "", err
	}
	return r.s.DisplayNames[userID], nil
}
