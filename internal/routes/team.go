package routes

import (
	"context"
	"fmt"

	"github.com/daap14/retrospecs/internal/loader"
	"github.com/daap14/retrospecs/internal/org"
	"github.com/daap14/retrospecs/internal/permission"
	"github.com/daap14/retrospecs/internal/queries"
	"github.com/daap14/retrospecs/internal/query"
	"github.com/daap14/retrospecs/internal/sprint"
	"github.com/daap14/retrospecs/internal/team"
)

// TeamData is returned by the team page loader.
type TeamData struct {
	Org             org.Organization `json:"org"`
	Team            team.Team        `json:"team"`
	Sprints         []sprint.Sprint  `json:"sprints"`
	Permission      permission.Level `json:"permission"`
	CanCreateSprint bool             `json:"canCreateSprint"`
}

func (s *Set) team(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	ids, invalid := params(rc, "orgId", "teamId")
	if invalid != nil {
		return *invalid, nil
	}
	orgID, teamID := ids[0], ids[1]

	var data TeamData
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) {
			data.Org, err = query.EnsureQueryData(ctx, rc.Query, queries.Org(rc.Backend, orgID))
			return err
		},
		func(ctx context.Context) (err error) {
			data.Team, err = query.EnsureQueryData(ctx, rc.Query, queries.Team(rc.Backend, teamID))
			return err
		},
		func(ctx context.Context) (err error) {
			data.Sprints, err = query.EnsureQueryData(ctx, rc.Query, queries.SprintsForTeam(rc.Backend, teamID))
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
	if err := teamInOrg(data.Team, orgID); err != nil {
		return loader.Outcome{}, err
	}
	data.CanCreateSprint = data.Permission.AtLeast(permission.Admin)

	payload, err := query.WithDehydratedState(data, rc.Query)
	if err != nil {
		return loader.Outcome{}, err
	}
	return loader.Continue(payload), nil
}

// TeamMembersData is returned by the team members page loader.
type TeamMembersData struct {
	Org     org.Organization `json:"org"`
	Team    team.Team        `json:"team"`
	Members []team.Member    `json:"members"`
}

func (s *Set) teamMembers(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	ids, invalid := params(rc, "orgId", "teamId")
	if invalid != nil {
		return *invalid, nil
	}
	orgID, teamID := ids[0], ids[1]

	var data TeamMembersData
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) {
			data.Org, err = query.EnsureQueryData(ctx, rc.Query, queries.Org(rc.Backend, orgID))
			return err
		},
		func(ctx context.Context) (err error) {
			data.Team, err = query.EnsureQueryData(ctx, rc.Query, queries.Team(rc.Backend, teamID))
			return err
		},
		func(ctx context.Context) (err error) {
			data.Members, err = query.EnsureQueryData(ctx, rc.Query, queries.TeamMembers(rc.Backend, teamID))
			return err
		},
	)
	if err != nil {
		return loader.Outcome{}, err
	}
	if err := teamInOrg(data.Team, orgID); err != nil {
		return loader.Outcome{}, err
	}

	payload, err := query.WithDehydratedState(data, rc.Query)
	if err != nil {
		return loader.Outcome{}, err
	}
	return loader.Continue(payload), nil
}

func teamInOrg(t team.Team, orgID int64) error {
	if t.OrgID != orgID {
		return fmt.Errorf("team %d in org %d: %w", t.ID, orgID, team.ErrTeamNotFound)
	}
	return nil
}
