package routes

import (
	"context"

	"github.com/daap14/retrospecs/internal/loader"
	"github.com/daap14/retrospecs/internal/org"
	"github.com/daap14/retrospecs/internal/queries"
	"github.com/daap14/retrospecs/internal/query"
)

// HomeData is returned by the home page loader.
type HomeData struct {
	Orgs []org.Organization `json:"orgs"`
}

func (s *Set) home(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	orgs, err := query.EnsureQueryData(ctx, rc.Query, queries.Orgs(rc.Backend, rc.User.ID))
	if err != nil {
		return loader.Outcome{}, err
	}

	cards := make([]func(context.Context) error, 0, len(orgs))
	for _, o := range orgs {
		o := o
		cards = append(cards, func(ctx context.Context) error {
			return prefetchOrgCard(ctx, rc, o)
		})
	}
	if err := fetchAll(ctx, cards...); err != nil {
		return loader.Outcome{}, err
	}

	payload, err := query.WithDehydratedState(HomeData{Orgs: orgs}, rc.Query)
	if err != nil {
		return loader.Outcome{}, err
	}
	return loader.Continue(payload), nil
}

// prefetchOrgCard warms everything an org card shows. Only the permission
// lookup can fail the page.
func prefetchOrgCard(ctx context.Context, rc *loader.RequestContext, o org.Organization) error {
	prefetchAll(ctx,
		func(ctx context.Context) { query.Prefetch(ctx, rc.Query, queries.OrgMemberCount(rc.Backend, o.ID)) },
		func(ctx context.Context) { query.Prefetch(ctx, rc.Query, queries.TeamCount(rc.Backend, o.ID)) },
		func(ctx context.Context) { query.Prefetch(ctx, rc.Query, queries.DisplayName(rc.Backend, o.OwnerID)) },
	)
	_, err := loader.EnsureCurrentUserPermissions(ctx, rc, o.ID, loader.OrgSourceList)
	return err
}
