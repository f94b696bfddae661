package navigator_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/retrospecs/internal/api"
	"github.com/daap14/retrospecs/internal/auth"
	"github.com/daap14/retrospecs/internal/backend/backendtest"
	"github.com/daap14/retrospecs/internal/loader"
	"github.com/daap14/retrospecs/internal/navigator"
	"github.com/daap14/retrospecs/internal/org"
	"github.com/daap14/retrospecs/internal/queries"
	"github.com/daap14/retrospecs/internal/query"
	"github.com/daap14/retrospecs/internal/realtime"
	"github.com/daap14/retrospecs/internal/routes"
	"github.com/daap14/retrospecs/internal/team"
)

var (
	ownerID = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	adminID = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
)

func newServer(t *testing.T, user *auth.User) *httptest.Server {
	t.Helper()
	s := backendtest.NewStore()
	s.Orgs = []org.Organization{{ID: 5, Name: "Acme", OwnerID: ownerID}}
	s.Members = []org.Member{{OrgID: 5, UserID: adminID, Role: org.RoleAdmin}}
	s.Teams = []team.Team{{ID: 10, OrgID: 5, Name: "Platform", CreatedBy: adminID}}

	std := loader.NewStandardChain(&backendtest.Factory{Store: s, Auth: &backendtest.Auth{User: user}})
	srv := httptest.NewServer(api.NewRouter(api.RouterDeps{Routes: routes.New(std, nil)}))
	t.Cleanup(srv.Close)
	return srv
}

func failFetch[T any](context.Context) (T, error) {
	var zero T
	return zero, errors.New("fetch must not run")
}

func TestNavigate_HydratesCache(t *testing.T) {
	srv := newServer(t, &auth.User{ID: adminID})
	nav, err := navigator.New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	data, res, err := navigator.Load[routes.OrgData](ctx, nav, "/orgs/5")
	require.NoError(t, err)
	assert.Equal(t, "/orgs/5", res.Path)
	assert.Positive(t, res.Hydrated)
	assert.Equal(t, "Acme", data.Org.Name)
	assert.True(t, data.CanCreateTeam)
	require.Len(t, data.Teams, 1)

	o, err := query.EnsureQueryData(ctx, nav.Cache(), query.Query[org.Organization]{
		Key:   queries.OrgKey(5),
		Fetch: failFetch[org.Organization],
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", o.Name)
}

func TestNavigate_RepeatNavigationIsIdempotent(t *testing.T) {
	srv := newServer(t, &auth.User{ID: adminID})
	nav, err := navigator.New(srv.URL)
	require.NoError(t, err)

	_, err = nav.Navigate(context.Background(), "/orgs/5")
	require.NoError(t, err)
	n := nav.Cache().Len()

	_, err = nav.Navigate(context.Background(), "/orgs/5")
	require.NoError(t, err)
	assert.Equal(t, n, nav.Cache().Len())
}

func TestNavigate_FollowsSignInRedirect(t *testing.T) {
	srv := newServer(t, nil)
	nav, err := navigator.New(srv.URL)
	require.NoError(t, err)

	data, res, err := navigator.Load[routes.SignInData](context.Background(), nav, "/orgs/5")
	require.NoError(t, err)
	assert.Equal(t, auth.SignInPath, res.Path)
	assert.Contains(t, data.SignInURL, "/auth/sign-in")
}

func TestNavigate_StopsAtOffSiteRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/away", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Location", "https://idp.example.com/authorize")
		w.WriteHeader(http.StatusSeeOther)
		_, _ = w.Write([]byte(`{"data":{"redirect":"https://idp.example.com/authorize"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	nav, err := navigator.New(srv.URL)
	require.NoError(t, err)

	res, err := nav.Navigate(context.Background(), "/away")
	require.NoError(t, err)
	assert.Equal(t, "https://idp.example.com/authorize", res.Redirect)

	_, _, err = navigator.Load[routes.OrgData](context.Background(), nav, "/away")
	assert.Error(t, err)
}

func TestNavigate_ServerError(t *testing.T) {
	srv := newServer(t, &auth.User{ID: adminID})
	nav, err := navigator.New(srv.URL)
	require.NoError(t, err)

	_, err = nav.Navigate(context.Background(), "/orgs/99")
	var navErr *navigator.Error
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, http.StatusNotFound, navErr.Status)
	assert.Equal(t, "NOT_FOUND", navErr.Code)

	_, err = nav.Navigate(context.Background(), "/orgs/abc")
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, http.StatusBadRequest, navErr.Status)
	assert.Equal(t, "VALIDATION_ERROR", navErr.Code)
}

func TestNew_RejectsRelativeBase(t *testing.T) {
	_, err := navigator.New("/only/a/path")
	assert.Error(t, err)
}

func TestWatch_InvalidatesOnChange(t *testing.T) {
	srv := newServer(t, &auth.User{ID: adminID})
	nav, err := navigator.New(srv.URL)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err = nav.Navigate(ctx, "/orgs/5")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- nav.Watch(ctx, realtime.NewSubscriber(rdb, realtime.DefaultChannel), ready)
	}()
	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not ready")
	}

	pub := realtime.NewPublisher(rdb, realtime.DefaultChannel)
	require.NoError(t, pub.Publish(ctx, realtime.Change{Table: "orgs", Op: realtime.OpUpdate, ID: 5}))

	assert.Eventually(t, func() bool {
		_, err := query.EnsureQueryData(ctx, nav.Cache(), query.Query[org.Organization]{
			Key:   queries.OrgKey(5),
			Fetch: failFetch[org.Organization],
		})
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
