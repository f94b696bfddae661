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

// SprintData is returned by the sprint page loader. Feedback and actions are
// carried in the dehydrated state.
type SprintData struct {
	Org        org.Organization `json:"org"`
	Team       team.Team        `json:"team"`
	Sprint     sprint.Sprint    `json:"sprint"`
	Permission permission.Level `json:"permission"`
}

func (s *Set) sprint(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	ids, invalid := params(rc, "orgId", "teamId", "sprintId")
	if invalid != nil {
		return *invalid, nil
	}
	orgID, teamID, sprintID := ids[0], ids[1], ids[2]

	var data SprintData
	fns := []func(context.Context) error{
		func(ctx context.Context) (err error) {
			data.Org, err = query.EnsureQueryData(ctx, rc.Query, queries.Org(rc.Backend, orgID))
			return err
		},
		func(ctx context.Context) (err error) {
			data.Team, err = query.EnsureQueryData(ctx, rc.Query, queries.Team(rc.Backend, teamID))
			return err
		},
		func(ctx context.Context) (err error) {
			data.Sprint, err = query.EnsureQueryData(ctx, rc.Query, queries.Sprint(rc.Backend, sprintID))
			return err
		},
		func(ctx context.Context) (err error) {
			data.Permission, err = loader.EnsureCurrentUserPermissions(ctx, rc, orgID, loader.OrgSourceSingle)
			return err
		},
		func(ctx context.Context) error {
			prefetchAll(ctx, sprintBoard(rc, sprintID)...)
			return nil
		},
	}
	if err := fetchAll(ctx, fns...); err != nil {
		return loader.Outcome{}, err
	}
	if err := teamInOrg(data.Team, orgID); err != nil {
		return loader.Outcome{}, err
	}
	if data.Sprint.TeamID != teamID {
		return loader.Outcome{}, fmt.Errorf("sprint %d in team %d: %w", sprintID, teamID, sprint.ErrSprintNotFound)
	}

	payload, err := query.WithDehydratedState(data, rc.Query)
	if err != nil {
		return loader.Outcome{}, err
	}
	return loader.Continue(payload), nil
}

// sprintBoard prefetches the feedback columns and the action list.
func sprintBoard(rc *loader.RequestContext, sprintID int64) []func(context.Context) {
	fns := make([]func(context.Context), 0, len(sprint.Categories)+1)
	for _, category := range sprint.Categories {
		category := category
		fns = append(fns, func(ctx context.Context) {
			query.Prefetch(ctx, rc.Query, queries.Feedback(rc.Backend, sprintID, category))
		})
	}
	fns = append(fns, func(ctx context.Context) {
		query.Prefetch(ctx, rc.Query, queries.Actions(rc.Backend, sprintID))
	})
	return fns
}
