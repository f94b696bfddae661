package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/daap14/retrospecs/internal/api/validation"
	"github.com/daap14/retrospecs/internal/loader"
	"github.com/daap14/retrospecs/internal/org"
	"github.com/daap14/retrospecs/internal/permission"
	"github.com/daap14/retrospecs/internal/realtime"
	"github.com/daap14/retrospecs/internal/team"
)

const maxBodyBytes = 1 << 20

type createTeamRequest struct {
	Name string `json:"name"`
}

type createInviteRequest struct {
	Email string `json:"email"`
}

func (s *Set) createTeam(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	ids, invalid := params(rc, "orgId")
	if invalid != nil {
		return *invalid, nil
	}
	orgID := ids[0]

	var req createTeamRequest
	if out, ok := decodeBody(rc, &req); !ok {
		return out, nil
	}
	name, errs := validation.TeamName(req.Name)
	if len(errs) > 0 {
		return loader.Invalid(errs...), nil
	}

	if _, err := loader.RequireLevel(ctx, rc, orgID, permission.Admin); err != nil {
		return loader.Outcome{}, err
	}

	t := &team.Team{OrgID: orgID, Name: name, CreatedBy: rc.User.ID}
	if err := rc.Backend.Teams.Create(ctx, t); err != nil {
		if errors.Is(err, team.ErrDuplicateTeamName) {
			return loader.Invalid(validation.FieldError{Field: "name", Message: fmt.Sprintf("a team named %q already exists", t.Name)}), nil
		}
		return loader.Outcome{}, fmt.Errorf("creating team: %w", err)
	}

	s.publish(ctx, realtime.Change{Table: "teams", Op: realtime.OpInsert, ID: t.ID, OrgID: orgID})
	return loader.Continue(t), nil
}

func (s *Set) createInvite(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	ids, invalid := params(rc, "orgId")
	if invalid != nil {
		return *invalid, nil
	}
	orgID := ids[0]

	var req createInviteRequest
	if out, ok := decodeBody(rc, &req); !ok {
		return out, nil
	}
	email := strings.TrimSpace(req.Email)
	if errs := validation.ValidateCreateInviteRequest(validation.CreateInviteRequest{Email: email}); len(errs) > 0 {
		return loader.Invalid(errs...), nil
	}

	if _, err := loader.RequireLevel(ctx, rc, orgID, permission.Admin); err != nil {
		return loader.Outcome{}, err
	}

	inv := &org.Invite{OrgID: orgID, Email: strings.ToLower(email), CreatedBy: rc.User.ID}
	if err := rc.Backend.Orgs.CreateInvite(ctx, inv); err != nil {
		if errors.Is(err, org.ErrDuplicateInvite) {
			return loader.Invalid(validation.FieldError{Field: "email", Message: "email has already been invited"}), nil
		}
		return loader.Outcome{}, fmt.Errorf("creating invite: %w", err)
	}

	s.publish(ctx, realtime.Change{Table: "org_invites", Op: realtime.OpInsert, ID: inv.ID, OrgID: orgID})
	return loader.Continue(inv), nil
}

func (s *Set) deleteOrg(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
	ids, invalid := params(rc, "orgId")
	if invalid != nil {
		return *invalid, nil
	}
	orgID := ids[0]

	if _, err := loader.RequireLevel(ctx, rc, orgID, permission.Owner); err != nil {
		return loader.Outcome{}, err
	}
	if err := rc.Backend.Orgs.Delete(ctx, orgID); err != nil {
		return loader.Outcome{}, fmt.Errorf("deleting org: %w", err)
	}

	s.publish(ctx, realtime.Change{Table: "orgs", Op: realtime.OpDelete, ID: orgID, OrgID: orgID})
	return loader.Continue(nil), nil
}

// publish reports a change. The write already succeeded, so failures are
// only logged.
func (s *Set) publish(ctx context.Context, ch realtime.Change) {
	if err := s.notifier.Publish(ctx, ch); err != nil {
		slog.Warn("publishing change failed", "table", ch.Table, "id", ch.ID, "error", err)
	}
}

func decodeBody(rc *loader.RequestContext, v any) (loader.Outcome, bool) {
	body := http.MaxBytesReader(rc.Writer, rc.Request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return loader.Invalid(validation.FieldError{Field: "body", Message: "Request body must be valid JSON"}), false
	}
	return loader.Outcome{}, true
}
