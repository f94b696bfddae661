// Package query is a keyed data cache with request de-duplication and a
// dehydrate/hydrate protocol for replaying server-fetched data on a client.
package query

import (
	"encoding/json"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultStaleTime is how long fetched data counts as fresh.
const DefaultStaleTime = 5 * time.Minute

// DefaultMaxEntries bounds the number of cached keys.
const DefaultMaxEntries = 4096

// Lookup results reported to an Observer.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)

// Observer receives cache lookup results, e.g. for metrics.
type Observer interface {
	ObserveLookup(result string)
}

type entry struct {
	key       Key
	value     any
	decoded   bool
	raw       json.RawMessage
	updatedAt time.Time
	invalid   bool
}

// Client holds cached query results. It is safe for concurrent use.
type Client struct {
	staleTime  time.Duration
	maxEntries int
	now        func() time.Time
	observer   Observer

	mu    sync.Mutex
	store *lru.Cache[string, *entry]
	group singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithStaleTime sets how long fetched data counts as fresh.
func WithStaleTime(d time.Duration) Option {
	return func(c *Client) { c.staleTime = d }
}

// WithMaxEntries bounds the cache; least recently used keys are evicted first.
func WithMaxEntries(n int) Option {
	return func(c *Client) { c.maxEntries = n }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithObserver reports every lookup to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates an empty cache.
func NewClient(opts ...Option) *Client {
	c := &Client{
		staleTime:  DefaultStaleTime,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxEntries <= 0 {
		c.maxEntries = DefaultMaxEntries
	}

	store, err := lru.New[string, *entry](c.maxEntries)
	if err != nil {
		// Only returned for a non-positive size, which is excluded above.
		panic(err)
	}
	c.store = store

	return c
}

// StaleTime returns the configured freshness window.
func (c *Client) StaleTime() time.Duration {
	return c.staleTime
}

// Len returns the number of cached keys.
func (c *Client) Len() int {
	return c.store.Len()
}

// Invalidate marks every entry whose key starts with prefix as stale so the
// next ensure refetches it. It returns the number of entries marked.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, hash := range c.store.Keys() {
		e, ok := c.store.Peek(hash)
		if ok && e.key.HasPrefix(prefix) && !e.invalid {
			e.invalid = true
			n++
		}
	}
	return n
}

// Remove drops every entry whose key starts with prefix.
func (c *Client) Remove(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, hash := range c.store.Keys() {
		if e, ok := c.store.Peek(hash); ok && e.key.HasPrefix(prefix) {
			c.store.Remove(hash)
		}
	}
}

// SetData stores value under key as freshly fetched.
func (c *Client) SetData(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Add(key.Hash(), &entry{key: key, value: value, decoded: true, updatedAt: c.now()})
}

func (c *Client) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveLookup(result)
	}
}

func (c *Client) fresh(e *entry) bool {
	return !e.invalid && c.now().Sub(e.updatedAt) < c.staleTime
}
