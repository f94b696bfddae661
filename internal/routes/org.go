package routes

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/daap14/retrospecs/internal/loader"
	"github.com/daap14/retrospecs/internal/org"
	"github.com/daap14/retrospecs/internal/permission"
	"github.com/daap14/retrospecs/internal/queries"
	"github.com/daap14/retrospecs/internal/query"
	"github.com/daap14/retrospecs/internal/team"
)

// OrgData is returned by the org page loader.
type OrgData struct {
	Org           org.Organization `json:"org"`
	Teams         []team.Team      `json:"teams"`
	Permission    permission.Level `json:"permission"`
	CanCreateTeam bool             `json:"canCreateTeam"`
}

func (s *Set) org(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	ids, invalid := params(rc, "orgId")
	if invalid != nil {
		return *invalid, nil
	}
	orgID := ids[0]

	teams, err := query.EnsureQueryData(ctx, rc.Query, queries.TeamsByOrg(rc.Backend, orgID))
	if err != nil {
		return loader.Outcome{}, err
	}

	data := OrgData{Teams: teams}
	cards := []func(context.Context) error{
		func(ctx context.Context) (err error) {
			data.Org, err = query.EnsureQueryData(ctx, rc.Query, queries.Org(rc.Backend, orgID))
			return err
		},
		func(ctx context.Context) (err error) {
			data.Permission, err = loader.EnsureCurrentUserPermissions(ctx, rc, orgID, loader.OrgSourceSingle)
			return err
		},
	}
	for _, t := range teams {
		t := t
		cards = append(cards, func(ctx context.Context) error {
			return prefetchTeamCard(ctx, rc, t)
		})
	}
	if err := fetchAll(ctx, cards...); err != nil {
		return loader.Outcome{}, err
	}
	data.CanCreateTeam = data.Permission.AtLeast(permission.Admin)

	payload, err := query.WithDehydratedState(data, rc.Query)
	if err != nil {
		return loader.Outcome{}, err
	}
	return loader.Continue(payload), nil
}

// prefetchTeamCard warms everything a team card shows.
func prefetchTeamCard(ctx context.Context, rc *loader.RequestContext, t team.Team) error {
	prefetchAll(ctx,
		func(ctx context.Context) { query.Prefetch(ctx, rc.Query, queries.TeamMemberCount(rc.Backend, t.ID)) },
		func(ctx context.Context) { query.Prefetch(ctx, rc.Query, queries.SprintCount(rc.Backend, t.ID)) },
		func(ctx context.Context) { query.Prefetch(ctx, rc.Query, queries.DisplayName(rc.Backend, t.CreatedBy)) },
	)
	_, err := loader.EnsureCurrentUserPermissions(ctx, rc, t.OrgID, loader.OrgSourceList)
	return err
}

// MemberPermission pairs an org member with their level.
type MemberPermission struct {
	UserID     uuid.UUID        `json:"userId"`
	Permission permission.Level `json:"permission"`
}

// OrgMembersData is returned by the org members page loader. Invites are
// only loaded for admins and owners.
type OrgMembersData struct {
	Org               org.Organization   `json:"org"`
	Members           []org.Member       `json:"members"`
	Permission        permission.Level   `json:"permission"`
	MemberPermissions []MemberPermission `json:"memberPermissions"`
	Invites           []org.Invite       `json:"invites,omitempty"`
}

func (s *Set) orgMembers(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	ids, invalid := params(rc, "orgId")
	if invalid != nil {
		return *invalid, nil
	}
	orgID := ids[0]

	var data OrgMembersData
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) {
			data.Members, err = query.EnsureQueryData(ctx, rc.Query, queries.OrgMembers(rc.Backend, orgID))
			return err
		},
		func(ctx context.Context) (err error) {
			data.Permission, err = loader.EnsureCurrentUserPermissions(ctx, rc, orgID, loader.OrgSourceSingle)
			return err
		},
	)
	if err != nil {
		return loader.Outcome{}, err
	}

	data.MemberPermissions = make([]MemberPermission, len(data.Members))
	fns := []func(context.Context) error{
		func(ctx context.Context) (err error) {
			data.Org, err = query.EnsureQueryData(ctx, rc.Query, queries.Org(rc.Backend, orgID))
			return err
		},
	}
	for i, m := range data.Members {
		i, m := i, m
		fns = append(fns, func(ctx context.Context) error {
			level, err := loader.EnsureUserPermissions(ctx, rc, orgID, m.UserID)
			if err != nil {
				return fmt.Errorf("resolving permission of member %s: %w", m.UserID, err)
			}
			data.MemberPermissions[i] = MemberPermission{UserID: m.UserID, Permission: level}
			return nil
		})
	}
	if data.Permission.AtLeast(permission.Admin) {
		fns = append(fns, func(ctx context.Context) (err error) {
			data.Invites, err = query.EnsureQueryData(ctx, rc.Query, queries.Invites(rc.Backend, orgID))
			return err
		})
	}
	if err := fetchAll(ctx, fns...); err != nil {
		return loader.Outcome{}, err
	}

	payload, err := query.WithDehydratedState(data, rc.Query)
	if err != nil {
		return loader.Outcome{}, err
	}
	return loader.Continue(payload), nil
}
