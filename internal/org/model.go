package org

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Member roles stored in the org_members table. The owner is not a role; it
// is derived from Organization.OwnerID.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Organization represents a row in the orgs table.
type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Member represents a row in the org_members table, keyed by (org_id, user_id).
type Member struct {
	OrgID     int64     `json:"org_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberID returns the composite key of the membership record.
func (m Member) MemberID() string {
	return MemberKey(m.OrgID, m.UserID)
}

// MemberKey formats the composite key of a membership record.
func MemberKey(orgID int64, userID uuid.UUID) string {
	return fmt.Sprintf("%d:%s", orgID, userID)
}

// Invite represents a pending invitation to join an organization.
type Invite struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Email     string    `json:"email"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// FindByID returns the organization with the given id from a list, or nil.
func FindByID(orgs []Organization, id int64) *Organization {
	for i := range orgs {
		if orgs[i].ID == id {
			return &orgs[i]
		}
	}
	return nil
}

// FindMember returns the membership of userID in a member list, or nil.
func FindMember(members []Member, orgID int64, userID uuid.UUID) *Member {
	key := MemberKey(orgID, userID)
	for i := range members {
		if members[i].MemberID() == key {
			return &members[i]
		}
	}
	return nil
}

// UserIDs returns the user ids of a member list in order.
func UserIDs(members []Member) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}
