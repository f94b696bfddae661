package realtime

import (
	"log/slog"

	"github.com/daap14/retrospecs/internal/queries"
	"github.com/daap14/retrospecs/internal/query"
)

// InvalidationKeys returns the key prefixes a change makes stale.
func InvalidationKeys(ch Change) []query.Key {
	switch ch.Table {
	case "orgs":
		return []query.Key{
			queries.OrgKey(ch.ID),
			{"orgs"},
			{"orgMember", ch.ID},
			queries.OrgMembersKey(ch.ID),
			queries.InvitesKey(ch.ID),
			queries.TeamsByOrgKey(ch.ID),
		}
	case "org_members":
		return []query.Key{
			{"orgMember", ch.OrgID},
			queries.OrgMembersKey(ch.OrgID),
			queries.OrgMemberCountKey(ch.OrgID),
			{"orgs"},
		}
	case "org_invites":
		return []query.Key{queries.InvitesKey(ch.OrgID)}
	case "teams":
		return []query.Key{
			queries.TeamKey(ch.ID),
			queries.TeamsByOrgKey(ch.OrgID),
			queries.TeamCountKey(ch.OrgID),
		}
	case "team_members":
		return []query.Key{
			queries.TeamMembersKey(ch.ParentID),
			queries.TeamMemberCountKey(ch.ParentID),
		}
	case "sprints":
		return []query.Key{
			queries.SprintKey(ch.ID),
			queries.SprintsByTeamKey(ch.ParentID),
			queries.SprintCountKey(ch.ParentID),
		}
	case "feedback":
		return []query.Key{{"feedback", ch.ParentID}}
	case "actions":
		return []query.Key{queries.ActionsKey(ch.ParentID)}
	case "profiles":
		return []query.Key{{"displayName"}}
	}
	return nil
}

// Invalidator returns a change handler that marks affected entries of c
// stale.
func Invalidator(c *query.Client) func(Change) {
	return func(ch Change) {
		n := 0
		for _, key := range InvalidationKeys(ch) {
			n += c.Invalidate(key)
		}
		slog.Debug("applied change", "table", ch.Table, "op", ch.Op, "id", ch.ID, "invalidated", n)
	}
}
