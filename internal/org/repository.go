package org

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrOrgNotFound is returned when an organization record is not found.
var ErrOrgNotFound = errors.New("organization not found")

// ErrDuplicateInvite is returned when an email is already invited to an organization.
var ErrDuplicateInvite = errors.New("invite already exists")

// Repository provides operations on the orgs, org_members and org_invites tables.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Organization, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Organization, error)
	Delete(ctx context.Context, id int64) error

	// GetMember returns nil and no error when the user is not a member.
	GetMember(ctx context.Context, orgID int64, userID uuid.UUID) (*Member, error)
	ListMembers(ctx context.Context, orgID int64) ([]Member, error)
	CountMembers(ctx context.Context, orgID int64) (int, error)

	ListInvites(ctx context.Context, orgID int64) ([]Invite, error)
	CreateInvite(ctx context.Context, invite *Invite) error
}
