package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/daap14/retrospecs/internal/auth"
)

const testBcryptCost = 4 // low cost for fast tests

// --- In-memory repositories ---

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*auth.User
	getFn func(ctx context.Context, id uuid.UUID) (*auth.User, error)
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uuid.UUID]*auth.User{}}
}

func (m *memUsers) Upsert(_ context.Context, identity auth.Identity) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Subject == identity.Subject {
			u.Email = identity.Email
			return u, nil
		}
	}
	u := &auth.User{ID: uuid.New(), Subject: identity.Subject, Email: identity.Email, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions []auth.Session
	lookups  int
}

func (m *memSessions) Create(_ context.Context, s *auth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	m.sessions = append(m.sessions, *s)
	return nil
}

func (m *memSessions) FindActiveByPrefix(_ context.Context, prefix string) ([]auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	var out []auth.Session
	for _, s := range m.sessions {
		if s.TokenPrefix == prefix && s.RevokedAt == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSessions) Revoke(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sessions {
		if m.sessions[i].ID == id && m.sessions[i].RevokedAt == nil {
			now := time.Now()
			m.sessions[i].RevokedAt = &now
			return nil
		}
	}
	return auth.ErrSessionNotFound
}

func newService() (*auth.Service, *memUsers, *memSessions) {
	users := newMemUsers()
	sessions := &memSessions{}
	return auth.NewService(users, sessions, testBcryptCost, time.Hour), users, sessions
}

// --- GenerateToken Tests ---

func TestGenerateToken_Format(t *testing.T) {
	svc, _, _ := newService()

	rawToken, prefix, hash, err := svc.GenerateToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawToken, "rs_"), "raw token should start with rs_")
	assert.Len(t, prefix, 8)
	assert.Equal(t, rawToken[:8], prefix)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawToken)))
}

func TestGenerateToken_Uniqueness(t *testing.T) {
	svc, _, _ := newService()

	t1, _, _, err := svc.GenerateToken()
	require.NoError(t, err)
	t2, _, _, err := svc.GenerateToken()
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
}

// --- SignIn / Authenticate Tests ---

func TestSignIn_ThenAuthenticate(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	user, rawToken, err := svc.SignIn(ctx, auth.Identity{Subject: "gh|1", Email: "ada@example.com"})
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, rawToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "ada@example.com", got.Email)
}

func TestSignIn_SameSubjectSameUser(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	u1, _, err := svc.SignIn(ctx, auth.Identity{Subject: "gh|1"})
	require.NoError(t, err)
	u2, _, err := svc.SignIn(ctx, auth.Identity{Subject: "gh|1"})
	require.NoError(t, err)

	assert.Equal(t, u1.ID, u2.ID)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, _, err := svc.SignIn(ctx, auth.Identity{Subject: "gh|1"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "too short", token: "rs_x"},
		{name: "unknown", token: "rs_unknowntokenvalue1234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidSession)
		})
	}
}

func TestAuthenticate_ExpiredSession(t *testing.T) {
	users := newMemUsers()
	sessions := &memSessions{}
	svc := auth.NewService(users, sessions, testBcryptCost, -time.Minute)

	_, rawToken, err := svc.SignIn(context.Background(), auth.Identity{Subject: "gh|1"})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), rawToken)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}

func TestAuthenticate_UserLookupFailure(t *testing.T) {
	svc, users, _ := newService()
	ctx := context.Background()

	_, rawToken, err := svc.SignIn(ctx, auth.Identity{Subject: "gh|1"})
	require.NoError(t, err)

	users.getFn = func(context.Context, uuid.UUID) (*auth.User, error) {
		return nil, errors.New("connection reset")
	}

	_, err = svc.Authenticate(ctx, rawToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidSession)
}

func TestSignOut_RevokesSession(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, rawToken, err := svc.SignIn(ctx, auth.Identity{Subject: "gh|1"})
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, rawToken))

	_, err = svc.Authenticate(ctx, rawToken)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}
