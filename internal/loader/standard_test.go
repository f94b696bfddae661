package loader_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/retrospecs/internal/auth"
	"github.com/daap14/retrospecs/internal/backend/backendtest"
	"github.com/daap14/retrospecs/internal/loader"
	"github.com/daap14/retrospecs/internal/query"
)

func newRequestContext() *loader.RequestContext {
	return &loader.RequestContext{
		Request: httptest.NewRequest(http.MethodGet, "/", nil),
		Writer:  httptest.NewRecorder(),
	}
}

func TestStandard_AuthenticatedAttachesEverything(t *testing.T) {
	user := &auth.User{ID: uuid.New(), Email: "ada@example.com"}
	f := &backendtest.Factory{Store: backendtest.NewStore(), Auth: &backendtest.Auth{User: user}}
	std := loader.NewStandardChain(f)

	p := std.Authenticated()
	assert.Equal(t, []string{"attachBackendClient", "attachAuthenticatedUser", "attachQueryCache"}, p.Names())

	var seen *loader.RequestContext
	out, err := loader.Run(context.Background(), p, newRequestContext(), func(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
		seen = rc
		return loader.Continue(nil), nil
	})
	require.NoError(t, err)
	assert.True(t, out.IsContinue())
	require.NotNil(t, seen)
	assert.NotNil(t, seen.Backend)
	assert.Equal(t, user, seen.User)
	assert.NotNil(t, seen.Query)
}

func TestStandard_UnauthenticatedRedirects(t *testing.T) {
	tests := []struct {
		name string
		auth *backendtest.Auth
	}{
		{name: "no session", auth: &backendtest.Auth{}},
		{name: "backend failure", auth: &backendtest.Auth{Err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &backendtest.Factory{Store: backendtest.NewStore(), Auth: tt.auth}
			std := loader.NewStandardChain(f)

			called := false
			out, err := loader.Run(context.Background(), std.Authenticated(), newRequestContext(), func(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
				called = true
				return loader.Continue(nil), nil
			})
			require.NoError(t, err)
			assert.Equal(t, loader.Redirect("/sign-in"), out)
			assert.False(t, called)
		})
	}
}

func TestStandard_QueryCachePerRequest(t *testing.T) {
	f := &backendtest.Factory{Store: backendtest.NewStore(), Auth: &backendtest.Auth{User: &auth.User{ID: uuid.New()}}}
	std := loader.NewStandardChain(f)

	var clients []*query.Client
	h := func(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
		clients = append(clients, rc.Query)
		return loader.Continue(nil), nil
	}
	for i := 0; i < 2; i++ {
		_, err := loader.Run(context.Background(), std.Authenticated(), newRequestContext(), h)
		require.NoError(t, err)
	}

	require.Len(t, clients, 2)
	assert.NotSame(t, clients[0], clients[1])
}

func TestRun_NotAuthenticatedFromLoaderRedirects(t *testing.T) {
	f := &backendtest.Factory{Store: backendtest.NewStore(), Auth: &backendtest.Auth{}}
	std := loader.NewStandardChain(f)

	out, err := loader.Run(context.Background(), std.Public(), newRequestContext(), func(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
		_, err := auth.EnsureAuthenticated(ctx, rc.Backend.Auth)
		return loader.Outcome{}, err
	})
	require.NoError(t, err)
	assert.Equal(t, loader.Redirect(auth.SignInPath), out)
}

func TestRun_OtherErrorsPropagate(t *testing.T) {
	f := &backendtest.Factory{Store: backendtest.NewStore(), Auth: &backendtest.Auth{}}
	std := loader.NewStandardChain(f)
	boom := errors.New("boom")

	_, err := loader.Run(context.Background(), std.Public(), newRequestContext(), func(ctx context.Context, rc *loader.RequestContext) (loader.Outcome, error) {
		return loader.Outcome{}, boom
	})
	assert.ErrorIs(t, err, boom)
}
