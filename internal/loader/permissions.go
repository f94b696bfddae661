package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/daap14/retrospecs/internal/auth"
	"github.com/daap14/retrospecs/internal/org"
	"github.com/daap14/retrospecs/internal/permission"
	"github.com/daap14/retrospecs/internal/queries"
	"github.com/daap14/retrospecs/internal/query"
)

// OrgSource selects how the org record is looked up for a permission check.
type OrgSource int

const (
	// OrgSourceSingle reads the single-org query.
	OrgSourceSingle OrgSource = iota
	// OrgSourceList picks the org out of the user's cached org list.
	OrgSourceList
)

// EnsureCurrentUserPermissions returns the signed-in user's level in orgID.
// It fails with auth.ErrNotAuthenticated when there is no session.
func EnsureCurrentUserPermissions(ctx context.Context, rc *RequestContext, orgID int64, source OrgSource) (permission.Level, error) {
	user, err := auth.EnsureAuthenticated(ctx, rc.Backend.Auth)
	if err != nil {
		return permission.None, err
	}

	var (
		o *org.Organization
		m *org.Member
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		o, err = orgFromSource(gctx, rc, orgID, user.ID, source)
		return err
	})
	g.Go(func() error {
		var err error
		m, err = query.EnsureQueryData(gctx, rc.Query, queries.OrgMember(rc.Backend, orgID, user.ID))
		return err
	})
	if err := g.Wait(); err != nil {
		return permission.None, fmt.Errorf("resolving permissions for org %d: %w", orgID, err)
	}

	return permission.Get(o, m, user.ID), nil
}

// EnsureUserPermissions returns userID's level in orgID using the org's
// cached member list.
func EnsureUserPermissions(ctx context.Context, rc *RequestContext, orgID int64, userID uuid.UUID) (permission.Level, error) {
	var (
		o       org.Organization
		members []org.Member
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		o, err = query.EnsureQueryData(gctx, rc.Query, queries.Org(rc.Backend, orgID))
		return err
	})
	g.Go(func() error {
		var err error
		members, err = query.EnsureQueryData(gctx, rc.Query, queries.OrgMembers(rc.Backend, orgID))
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, org.ErrOrgNotFound) {
			return permission.None, nil
		}
		return permission.None, fmt.Errorf("resolving permissions for user %s in org %d: %w", userID, orgID, err)
	}

	return permission.Get(&o, org.FindMember(members, orgID, userID), userID), nil
}

// RequireLevel fails with ErrForbidden when the current user is below min.
func RequireLevel(ctx context.Context, rc *RequestContext, orgID int64, min permission.Level) (permission.Level, error) {
	level, err := EnsureCurrentUserPermissions(ctx, rc, orgID, OrgSourceSingle)
	if err != nil {
		return level, err
	}
	if !level.AtLeast(min) {
		return level, fmt.Errorf("%w: %s required, have %s", ErrForbidden, min, level)
	}
	return level, nil
}

func orgFromSource(ctx context.Context, rc *RequestContext, orgID int64, userID uuid.UUID, source OrgSource) (*org.Organization, error) {
	if source == OrgSourceList {
		orgs, err := query.EnsureQueryData(ctx, rc.Query, queries.Orgs(rc.Backend, userID))
		if err != nil {
			return nil, err
		}
		return org.FindByID(orgs, orgID), nil
	}

	o, err := query.EnsureQueryData(ctx, rc.Query, queries.Org(rc.Backend, orgID))
	if err != nil {
		if errors.Is(err, org.ErrOrgNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}
