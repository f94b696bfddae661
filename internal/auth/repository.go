package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when a user record is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionNotFound is returned when a session record is not found or already revoked.
var ErrSessionNotFound = errors.New("session not found")

// UserRepository provides operations on the users and profiles tables.
type UserRepository interface {
	// Upsert creates the user for identity.Subject if missing and refreshes
	// the email and display name.
	Upsert(ctx context.Context, identity Identity) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// SessionRepository provides operations on the sessions table.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	// FindActiveByPrefix returns unrevoked, unexpired sessions with the prefix.
	FindActiveByPrefix(ctx context.Context, prefix string) ([]Session, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}
