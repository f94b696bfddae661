// Package queries defines the cache keys and fetchers for every entity the
// route loaders read.
package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/daap14/retrospecs/internal/backend"
	"github.com/daap14/retrospecs/internal/org"
	"github.com/daap14/retrospecs/internal/query"
	"github.com/daap14/retrospecs/internal/sprint"
	"github.com/daap14/retrospecs/internal/team"
)

// OrgKey identifies a single organization.
func OrgKey(orgID int64) query.Key { return query.Key{"org", orgID} }

// OrgsKey identifies the organization list of a user.
func OrgsKey(userID uuid.UUID) query.Key { return query.Key{"orgs", userID.String()} }

// OrgMemberKey identifies one membership record.
func OrgMemberKey(orgID int64, userID uuid.UUID) query.Key {
	return query.Key{"orgMember", orgID, userID.String()}
}

// OrgMembersKey identifies the membership list of an organization.
func OrgMembersKey(orgID int64) query.Key { return query.Key{"orgMembers", orgID} }

// OrgMemberCountKey identifies the member count of an organization.
func OrgMemberCountKey(orgID int64) query.Key { return query.Key{"orgMemberCount", orgID} }

// InvitesKey identifies the pending invites of an organization.
func InvitesKey(orgID int64) query.Key { return query.Key{"invites", orgID} }

// TeamKey identifies a single team.
func TeamKey(teamID int64) query.Key { return query.Key{"team", teamID} }

// TeamsByOrgKey identifies the teams of an organization.
func TeamsByOrgKey(orgID int64) query.Key { return query.Key{"teams", "byOrg", orgID} }

// TeamCountKey identifies the team count of an organization.
func TeamCountKey(orgID int64) query.Key { return query.Key{"teamCount", orgID} }

// TeamMembersKey identifies the members of a team.
func TeamMembersKey(teamID int64) query.Key { return query.Key{"teamMembers", teamID} }

// TeamMemberCountKey identifies the member count of a team.
func TeamMemberCountKey(teamID int64) query.Key { return query.Key{"teamMemberCount", teamID} }

// SprintKey identifies a single sprint.
func SprintKey(sprintID int64) query.Key { return query.Key{"sprint", sprintID} }

// SprintsByTeamKey identifies the sprints of a team.
func SprintsByTeamKey(teamID int64) query.Key { return query.Key{"sprints", "byTeam", teamID} }

// SprintCountKey identifies the sprint count of a team.
func SprintCountKey(teamID int64) query.Key { return query.Key{"sprintCount", teamID} }

// DisplayNameKey identifies the display name of a user.
func DisplayNameKey(userID uuid.UUID) query.Key { return query.Key{"displayName", userID.String()} }

// FeedbackKey identifies the feedback of one category on a sprint board.
func FeedbackKey(sprintID int64, category string) query.Key {
	return query.Key{"feedback", sprintID, category}
}

// ActionsKey identifies the action items of a sprint.
func ActionsKey(sprintID int64) query.Key { return query.Key{"actions", sprintID} }

// Org fetches a single organization.
func Org(b *backend.Client, orgID int64) query.Query[org.Organization] {
	return query.Query[org.Organization]{
		Key: OrgKey(orgID),
		Fetch: func(ctx context.Context) (org.Organization, error) {
			o, err := b.Orgs.GetByID(ctx, orgID)
			if err != nil {
				return org.Organization{}, err
			}
			return *o, nil
		},
	}
}

// Orgs fetches the organizations a user owns or belongs to.
func Orgs(b *backend.Client, userID uuid.UUID) query.Query[[]org.Organization] {
	return query.Query[[]org.Organization]{
		Key: OrgsKey(userID),
		Fetch: func(ctx context.Context) ([]org.Organization, error) {
			return b.Orgs.ListForUser(ctx, userID)
		},
	}
}

// OrgMember fetches one membership record; the value is nil for non-members.
func OrgMember(b *backend.Client, orgID int64, userID uuid.UUID) query.Query[*org.Member] {
	return query.Query[*org.Member]{
		Key: OrgMemberKey(orgID, userID),
		Fetch: func(ctx context.Context) (*org.Member, error) {
			return b.Orgs.GetMember(ctx, orgID, userID)
		},
	}
}

// OrgMembers fetches every membership record of an organization.
func OrgMembers(b *backend.Client, orgID int64) query.Query[[]org.Member] {
	return query.Query[[]org.Member]{
		Key: OrgMembersKey(orgID),
		Fetch: func(ctx context.Context) ([]org.Member, error) {
			return b.Orgs.ListMembers(ctx, orgID)
		},
	}
}

// OrgMemberCount counts the members of an organization.
func OrgMemberCount(b *backend.Client, orgID int64) query.Query[int] {
	return query.Query[int]{
		Key: OrgMemberCountKey(orgID),
		Fetch: func(ctx context.Context) (int, error) {
			return b.Orgs.CountMembers(ctx, orgID)
		},
	}
}

// Invites fetches the pending invites of an organization.
func Invites(b *backend.Client, orgID int64) query.Query[[]org.Invite] {
	return query.Query[[]org.Invite]{
		Key: InvitesKey(orgID),
		Fetch: func(ctx context.Context) ([]org.Invite, error) {
			return b.Orgs.ListInvites(ctx, orgID)
		},
	}
}

// Team fetches a single team.
func Team(b *backend.Client, teamID int64) query.Query[team.Team] {
	return query.Query[team.Team]{
		Key: TeamKey(teamID),
		Fetch: func(ctx context.Context) (team.Team, error) {
			t, err := b.Teams.GetByID(ctx, teamID)
			if err != nil {
				return team.Team{}, err
			}
			return *t, nil
		},
	}
}

// TeamsByOrg fetches the teams of an organization.
func TeamsByOrg(b *backend.Client, orgID int64) query.Query[[]team.Team] {
	return query.Query[[]team.Team]{
		Key: TeamsByOrgKey(orgID),
		Fetch: func(ctx context.Context) ([]team.Team, error) {
			return b.Teams.ListByOrg(ctx, orgID)
		},
	}
}

// TeamCount counts the teams of an organization.
func TeamCount(b *backend.Client, orgID int64) query.Query[int] {
	return query.Query[int]{
		Key: TeamCountKey(orgID),
		Fetch: func(ctx context.Context) (int, error) {
			return b.Teams.CountByOrg(ctx, orgID)
		},
	}
}

// TeamMembers fetches the members of a team.
func TeamMembers(b *backend.Client, teamID int64) query.Query[[]team.Member] {
	return query.Query[[]team.Member]{
		Key: TeamMembersKey(teamID),
		Fetch: func(ctx context.Context) ([]team.Member, error) {
			return b.Teams.ListMembers(ctx, teamID)
		},
	}
}

// TeamMemberCount counts the members of a team.
func TeamMemberCount(b *backend.Client, teamID int64) query.Query[int] {
	return query.Query[int]{
		Key: TeamMemberCountKey(teamID),
		Fetch: func(ctx context.Context) (int, error) {
			return b.Teams.CountMembers(ctx, teamID)
		},
	}
}

// Sprint fetches a single sprint.
func Sprint(b *backend.Client, sprintID int64) query.Query[sprint.Sprint] {
	return query.Query[sprint.Sprint]{
		Key: SprintKey(sprintID),
		Fetch: func(ctx context.Context) (sprint.Sprint, error) {
			s, err := b.Sprints.GetByID(ctx, sprintID)
			if err != nil {
				return sprint.Sprint{}, err
			}
			return *s, nil
		},
	}
}

// SprintsForTeam fetches the sprints of a team, newest first.
func SprintsForTeam(b *backend.Client, teamID int64) query.Query[[]sprint.Sprint] {
	return query.Query[[]sprint.Sprint]{
		Key: SprintsByTeamKey(teamID),
		Fetch: func(ctx context.Context) ([]sprint.Sprint, error) {
			return b.Sprints.ListForTeam(ctx, teamID)
		},
	}
}

// SprintCount counts the sprints of a team.
func SprintCount(b *backend.Client, teamID int64) query.Query[int] {
	return query.Query[int]{
		Key: SprintCountKey(teamID),
		Fetch: func(ctx context.Context) (int, error) {
			return b.Sprints.CountForTeam(ctx, teamID)
		},
	}
}

// Feedback fetches the feedback of one category on a sprint.
func Feedback(b *backend.Client, sprintID int64, category string) query.Query[[]sprint.Feedback] {
	return query.Query[[]sprint.Feedback]{
		Key: FeedbackKey(sprintID, category),
		Fetch: func(ctx context.Context) ([]sprint.Feedback, error) {
			return b.Sprints.ListFeedback(ctx, sprintID, category)
		},
	}
}

// Actions fetches the action items of a sprint.
func Actions(b *backend.Client, sprintID int64) query.Query[[]sprint.Action] {
	return query.Query[[]sprint.Action]{
		Key: ActionsKey(sprintID),
		Fetch: func(ctx context.Context) ([]sprint.Action, error) {
			return b.Sprints.ListActions(ctx, sprintID)
		},
	}
}

// DisplayName fetches the name shown for a user.
func DisplayName(b *backend.Client, userID uuid.UUID) query.Query[string] {
	return query.Query[string]{
		Key: DisplayNameKey(userID),
		Fetch: func(ctx context.Context) (string, error) {
			return b.Profiles.DisplayName(ctx, userID)
		},
	}
}
