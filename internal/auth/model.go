package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents a row in the users table. Users are created on first
// sign-in from the identity provider's subject.
type User struct {
	ID        uuid.UUID `json:"id"`
	Subject   string    `json:"-"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session represents a row in the sessions table.
type Session struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	TokenPrefix string
	TokenHash   string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
}

// Identity is what the identity provider asserts about a signed-in user.
type Identity struct {
	Subject string
	Email   string
	Name    string
}
