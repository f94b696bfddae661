package routes_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/retrospecs/internal/loader"
	"github.com/daap14/retrospecs/internal/org"
	"github.com/daap14/retrospecs/internal/realtime"
	"github.com/daap14/retrospecs/internal/team"
)

func TestCreateTeam(t *testing.T) {
	h := newHarness(adminID)

	out, err := h.run(t, "createTeam", "/api/orgs/5/teams", map[string]string{"orgId": "5"}, `{"name":"  Design  "}`)
	require.NoError(t, err)
	require.Equal(t, loader.KindContinue, out.Kind)

	created, ok := out.Data.(*team.Team)
	require.True(t, ok)
	assert.Equal(t, "Design", created.Name)
	assert.Equal(t, int64(5), created.OrgID)
	assert.Equal(t, adminID, created.CreatedBy)
	assert.NotZero(t, created.ID)

	require.Len(t, h.notifier.changes, 1)
	assert.Equal(t, realtime.Change{Table: "teams", Op: realtime.OpInsert, ID: created.ID, OrgID: 5}, h.notifier.changes[0])
}

func TestCreateTeam_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		user     uuid.UUID
		body     string
		wantErr  error
		wantKind loader.Kind
	}{
		{name: "member is forbidden", user: memberID, body: `{"name":"Design"}`, wantErr: loader.ErrForbidden},
		{name: "outsider is forbidden", user: outsider, body: `{"name":"Design"}`, wantErr: loader.ErrForbidden},
		{name: "malformed body", user: adminID, body: `{"name":`, wantKind: loader.KindInvalid},
		{name: "blank name", user: adminID, body: `{"name":"  "}`, wantKind: loader.KindInvalid},
		{name: "duplicate name", user: adminID, body: `{"name":"Platform"}`, wantKind: loader.KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(tt.user)

			out, err := h.run(t, "createTeam", "/api/orgs/5/teams", map[string]string{"orgId": "5"}, tt.body)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantKind, out.Kind)
			}
			assert.Empty(t, h.notifier.changes)
			assert.Len(t, h.store.Teams, 3)
		})
	}
}

func TestCreateTeam_PublishFailureDoesNotFailWrite(t *testing.T) {
	h := newHarness(ownerID)
	h.notifier.err = errors.New("redis down")

	out, err := h.run(t, "createTeam", "/api/orgs/5/teams", map[string]string{"orgId": "5"}, `{"name":"Design"}`)
	require.NoError(t, err)
	assert.Equal(t, loader.KindContinue, out.Kind)
	assert.Len(t, h.store.Teams, 4)
}

func TestCreateInvite(t *testing.T) {
	h := newHarness(ownerID)

	out, err := h.run(t, "createInvite", "/api/orgs/5/invites", map[string]string{"orgId": "5"}, `{"email":"Grace@Example.com"}`)
	require.NoError(t, err)

	inv, ok := out.Data.(*org.Invite)
	require.True(t, ok)
	assert.Equal(t, "grace@example.com", inv.Email)
	require.Len(t, h.notifier.changes, 1)
	assert.Equal(t, "org_invites", h.notifier.changes[0].Table)

	out, err = h.run(t, "createInvite", "/api/orgs/5/invites", map[string]string{"orgId": "5"}, `{"email":"grace@example.com"}`)
	require.NoError(t, err)
	assert.Equal(t, loader.KindInvalid, out.Kind)

	h = newHarness(memberID)
	_, err = h.run(t, "createInvite", "/api/orgs/5/invites", map[string]string{"orgId": "5"}, `{"email":"x@example.com"}`)
	assert.ErrorIs(t, err, loader.ErrForbidden)
}

func TestDeleteOrg(t *testing.T) {
	h := newHarness(adminID)
	_, err := h.run(t, "deleteOrg", "/api/orgs/5", map[string]string{"orgId": "5"}, "")
	assert.ErrorIs(t, err, loader.ErrForbidden)
	assert.Len(t, h.store.Orgs, 2)

	h = newHarness(ownerID)
	out, err := h.run(t, "deleteOrg", "/api/orgs/5", map[string]string{"orgId": "5"}, "")
	require.NoError(t, err)
	assert.Equal(t, loader.Continue(nil), out)
	assert.Len(t, h.store.Orgs, 1)
	require.Len(t, h.notifier.changes, 1)
	assert.Equal(t, realtime.Change{Table: "orgs", Op: realtime.OpDelete, ID: 5, OrgID: 5}, h.notifier.changes[0])
}
