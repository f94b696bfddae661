package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidSession is returned when a session token does not match any live session.
var ErrInvalidSession = errors.New("invalid, expired or revoked session")

const (
	tokenPrefix    = "rs_"
	tokenPrefixLen = 8
)

// Service issues and resolves session tokens.
type Service struct {
	users      UserRepository
	sessions   SessionRepository
	bcryptCost int
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService creates a new auth Service.
func NewService(users UserRepository, sessions SessionRepository, bcryptCost int, sessionTTL time.Duration) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// GenerateToken creates a new session token. Returns the raw token, its prefix
// (first 8 chars) and the bcrypt hash. The raw token is: 32 random bytes ->
// base64url -> prepend "rs_".
func (s *Service) GenerateToken() (rawToken, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawToken = tokenPrefix + base64.RawURLEncoding.EncodeToString(b)
	prefix = rawToken[:tokenPrefixLen]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawToken), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing token: %w", err)
	}

	return rawToken, prefix, string(hashBytes), nil
}

// SignIn upserts the user asserted by the identity provider and opens a
// session for it. The raw token is returned once and never stored.
func (s *Service) SignIn(ctx context.Context, identity Identity) (*User, string, error) {
	user, err := s.users.Upsert(ctx, identity)
	if err != nil {
		return nil, "", fmt.Errorf("upserting user: %w", err)
	}

	rawToken, prefix, hash, err := s.GenerateToken()
	if err != nil {
		return nil, "", err
	}

	session := &Session{
		UserID:      user.ID,
		TokenPrefix: prefix,
		TokenHash:   hash,
		ExpiresAt:   s.now().Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", fmt.Errorf("creating session: %w", err)
	}

	slog.Info("session created", "userId", user.ID, "sessionId", session.ID)

	return user, rawToken, nil
}

// Authenticate resolves a raw session token to its user. It extracts the
// prefix, looks up candidates, and bcrypt-compares each one.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*User, error) {
	session, err := s.findSession(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("fetching session user: %w", err)
	}

	return user, nil
}

// SignOut revokes the session identified by the raw token.
func (s *Service) SignOut(ctx context.Context, rawToken string) error {
	session, err := s.findSession(ctx, rawToken)
	if err != nil {
		return err
	}
	return s.sessions.Revoke(ctx, session.ID)
}

func (s *Service) findSession(ctx context.Context, rawToken string) (*Session, error) {
	if len(rawToken) < tokenPrefixLen {
		return nil, ErrInvalidSession
	}

	candidates, err := s.sessions.FindActiveByPrefix(ctx, rawToken[:tokenPrefixLen])
	if err != nil {
		return nil, fmt.Errorf("finding sessions by prefix: %w", err)
	}

	now := s.now()
	for i := range candidates {
		c := &candidates[i]
		if c.RevokedAt != nil || !c.ExpiresAt.After(now) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(c.TokenHash), []byte(rawToken)) == nil {
			return c, nil
		}
	}

	return nil, ErrInvalidSession
}
