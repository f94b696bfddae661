package query_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/retrospecs/internal/query"
)

type org struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func countingQuery(key query.Key, calls *atomic.Int32, value org) query.Query[org] {
	return query.Query[org]{
		Key: key,
		Fetch: func(context.Context) (org, error) {
			calls.Add(1)
			return value, nil
		},
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	results []string
}

func (r *recordingObserver) ObserveLookup(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

// --- EnsureQueryData ---

func TestEnsureQueryData_CachesFreshValue(t *testing.T) {
	obs := &recordingObserver{}
	c := query.NewClient(query.WithObserver(obs))
	var calls atomic.Int32
	q := countingQuery(query.Key{"org", 5}, &calls, org{ID: 5, Name: "acme"})

	first, err := query.EnsureQueryData(context.Background(), c, q)
	require.NoError(t, err)
	second, err := query.EnsureQueryData(context.Background(), c, q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{query.LookupMiss, query.LookupHit}, obs.results)
}

func TestEnsureQueryData_ConcurrentCallsShareOneFetch(t *testing.T) {
	c := query.NewClient()
	var calls atomic.Int32
	release := make(chan struct{})
	q := query.Query[org]{
		Key: query.Key{"org", 5},
		Fetch: func(context.Context) (org, error) {
			calls.Add(1)
			<-release
			return org{ID: 5}, nil
		},
	}

	const callers = 10
	var wg sync.WaitGroup
	results := make([]org, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = query.EnsureQueryData(context.Background(), c, q)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, int64(5), results[i].ID)
	}
}

func TestEnsureQueryData_RefetchesAfterStaleTime(t *testing.T) {
	clock := newClock()
	c := query.NewClient(query.WithStaleTime(time.Minute), query.WithClock(clock.Now))
	var calls atomic.Int32
	q := countingQuery(query.Key{"org", 5}, &calls, org{ID: 5})

	_, err := query.EnsureQueryData(context.Background(), c, q)
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	_, err = query.EnsureQueryData(context.Background(), c, q)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(time.Second)
	_, err = query.EnsureQueryData(context.Background(), c, q)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEnsureQueryData_ErrorPropagatesAndIsNotCached(t *testing.T) {
	c := query.NewClient()
	boom := errors.New("boom")
	var calls atomic.Int32
	q := query.Query[org]{
		Key: query.Key{"org", 5},
		Fetch: func(context.Context) (org, error) {
			if calls.Add(1) == 1 {
				return org{}, boom
			}
			return org{ID: 5}, nil
		},
	}

	_, err := query.EnsureQueryData(context.Background(), c, q)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	got, err := query.EnsureQueryData(context.Background(), c, q)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEnsureQueryData_TypeMismatch(t *testing.T) {
	c := query.NewClient()
	c.SetData(query.Key{"org", 5}, "not an org")

	var calls atomic.Int32
	_, err := query.EnsureQueryData(context.Background(), c, countingQuery(query.Key{"org", 5}, &calls, org{ID: 5}))

	// The mismatched entry is treated as a miss and replaced.
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPrefetch_SwallowsErrors(t *testing.T) {
	c := query.NewClient()
	q := query.Query[int]{
		Key:   query.Key{"count", 1},
		Fetch: func(context.Context) (int, error) { return 0, errors.New("down") },
	}

	assert.NotPanics(t, func() { query.Prefetch(context.Background(), c, q) })
	_, ok := query.GetQueryData[int](c, query.Key{"count", 1})
	assert.False(t, ok)
}

func TestPrefetch_PopulatesCache(t *testing.T) {
	c := query.NewClient()
	query.Prefetch(context.Background(), c, query.Query[int]{
		Key:   query.Key{"count", 1},
		Fetch: func(context.Context) (int, error) { return 3, nil },
	})

	got, ok := query.GetQueryData[int](c, query.Key{"count", 1})
	require.True(t, ok)
	assert.Equal(t, 3, got)
}

// --- Invalidate / Remove / eviction ---

func TestInvalidate_ByPrefix(t *testing.T) {
	c := query.NewClient()
	var orgCalls, teamCalls atomic.Int32
	orgQ := countingQuery(query.Key{"org", 5}, &orgCalls, org{ID: 5})
	otherQ := countingQuery(query.Key{"org", 6}, &teamCalls, org{ID: 6})

	ctx := context.Background()
	_, _ = query.EnsureQueryData(ctx, c, orgQ)
	_, _ = query.EnsureQueryData(ctx, c, otherQ)

	assert.Equal(t, 1, c.Invalidate(query.Key{"org", 5}))

	_, _ = query.EnsureQueryData(ctx, c, orgQ)
	_, _ = query.EnsureQueryData(ctx, c, otherQ)
	assert.Equal(t, int32(2), orgCalls.Load())
	assert.Equal(t, int32(1), teamCalls.Load())
}

func TestRemove_ByPrefix(t *testing.T) {
	c := query.NewClient()
	c.SetData(query.Key{"teams", "byOrg", 5}, 1)
	c.SetData(query.Key{"teams", "byOrg", 6}, 2)
	c.SetData(query.Key{"org", 5}, 3)

	c.Remove(query.Key{"teams"})

	assert.Equal(t, 1, c.Len())
}

func TestMaxEntries_EvictsLeastRecentlyUsed(t *testing.T) {
	c := query.NewClient(query.WithMaxEntries(2))
	c.SetData(query.Key{"a"}, 1)
	c.SetData(query.Key{"b"}, 2)
	_, _ = query.GetQueryData[int](c, query.Key{"a"})
	c.SetData(query.Key{"c"}, 3)

	_, okA := query.GetQueryData[int](c, query.Key{"a"})
	_, okB := query.GetQueryData[int](c, query.Key{"b"})
	assert.True(t, okA)
	assert.False(t, okB)
}

// --- Dehydrate / Hydrate ---

type orgPageData struct {
	Org   org    `json:"org"`
	Teams []org  `json:"teams"`
	Note  string `json:"note"`
}

func TestDehydrateHydrate_RoundTripsPayload(t *testing.T) {
	ctx := context.Background()
	server := query.NewClient()
	var calls atomic.Int32
	q := countingQuery(query.Key{"org", 5}, &calls, org{ID: 5, Name: "acme", OwnerID: "u1"})

	o, err := query.EnsureQueryData(ctx, server, q)
	require.NoError(t, err)
	data := orgPageData{Org: o, Teams: []org{{ID: 1, Name: "core"}}, Note: "hello"}

	payload, err := query.WithDehydratedState(data, server)
	require.NoError(t, err)

	wire, err := json.Marshal(payload)
	require.NoError(t, err)

	var received query.Payload[orgPageData]
	require.NoError(t, json.Unmarshal(wire, &received))

	browser := query.NewClient()
	got := query.EnsureHydrated(&received, browser)
	assert.Equal(t, data, got)

	// The hydrated entry answers without refetching.
	cached, err := query.EnsureQueryData(ctx, browser, q)
	require.NoError(t, err)
	assert.Equal(t, o, cached)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHydrate_IsIdempotent(t *testing.T) {
	server := query.NewClient()
	server.SetData(query.Key{"org", 5}, org{ID: 5, Name: "acme"})
	server.SetData(query.Key{"teams", "byOrg", 5}, []org{{ID: 1}})

	state, err := server.Dehydrate()
	require.NoError(t, err)

	browser := query.NewClient()
	browser.Hydrate(state)
	first, err := browser.Dehydrate()
	require.NoError(t, err)

	browser.Hydrate(state)
	second, err := browser.Dehydrate()
	require.NoError(t, err)

	assert.Equal(t, 2, browser.Len())
	assert.Equal(t, first, second)
}

func TestHydrate_NewerLocalEntryWins(t *testing.T) {
	clock := newClock()
	server := query.NewClient(query.WithClock(clock.Now))
	server.SetData(query.Key{"org", 5}, org{ID: 5, Name: "old"})
	state, err := server.Dehydrate()
	require.NoError(t, err)

	clock.Advance(time.Second)
	browser := query.NewClient(query.WithClock(clock.Now))
	browser.SetData(query.Key{"org", 5}, org{ID: 5, Name: "new"})
	browser.Hydrate(state)

	got, ok := query.GetQueryData[org](browser, query.Key{"org", 5})
	require.True(t, ok)
	assert.Equal(t, "new", got.Name)
}

func TestHydrate_NilState(t *testing.T) {
	c := query.NewClient()
	assert.NotPanics(t, func() { c.Hydrate(nil) })
	assert.Equal(t, 0, c.Len())
}

func TestDehydrate_SkipsInvalidated(t *testing.T) {
	c := query.NewClient()
	c.SetData(query.Key{"org", 5}, org{ID: 5})
	c.SetData(query.Key{"org", 6}, org{ID: 6})
	c.Invalidate(query.Key{"org", 6})

	state, err := c.Dehydrate()
	require.NoError(t, err)
	require.Len(t, state.Queries, 1)
	assert.Equal(t, `["org",5]`, state.Queries[0].QueryHash)
}

// --- Key ---

func TestKey_HashAndPrefix(t *testing.T) {
	assert.Equal(t, `["org",5]`, query.Key{"org", int64(5)}.Hash())
	assert.Equal(t, query.Key{"org", int64(5)}.Hash(), query.Key{"org", float64(5)}.Hash())

	k := query.Key{"teams", "byOrg", 5}
	assert.True(t, k.HasPrefix(query.Key{"teams"}))
	assert.True(t, k.HasPrefix(query.Key{"teams", "byOrg", 5.0}))
	assert.False(t, k.HasPrefix(query.Key{"teams", "byOrg", 6}))
	assert.False(t, query.Key{"teams"}.HasPrefix(k))
}
