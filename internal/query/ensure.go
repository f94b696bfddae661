package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Query pairs a cache key with the function that fetches its data.
type Query[T any] struct {
	Key   Key
	Fetch func(ctx context.Context) (T, error)
}

// EnsureQueryData returns the cached value for q.Key when it is fresh and
// otherwise fetches, stores and returns it. Concurrent calls for the same key
// share a single fetch. Fetch errors are returned to every waiter and are
// not cached.
func EnsureQueryData[T any](ctx context.Context, c *Client, q Query[T]) (T, error) {
	if v, ok := cached[T](c, q.Key); ok {
		c.observe(LookupHit)
		return v, nil
	}
	c.observe(LookupMiss)

	hash := q.Key.Hash()
	res, err, _ := c.group.Do(hash, func() (any, error) {
		// A fetch that finished between the miss and Do already stored the value.
		if v, ok := cached[T](c, q.Key); ok {
			return v, nil
		}
		v, err := q.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.SetData(q.Key, v)
		return v, nil
	})
	if err != nil {
		c.observe(LookupError)
		var zero T
		return zero, err
	}

	v, ok := res.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query %s: cached value has type %T", hash, res)
	}
	return v, nil
}

// Prefetch warms the cache for q. Failures are logged and dropped; the
// caller that needs the data will fetch it again.
func Prefetch[T any](ctx context.Context, c *Client, q Query[T]) {
	if _, err := EnsureQueryData(ctx, c, q); err != nil {
		slog.Debug("prefetch failed", "key", q.Key.Hash(), "error", err)
	}
}

// GetQueryData returns the cached value for key regardless of freshness.
func GetQueryData[T any](c *Client, key Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.store.Get(key.Hash())
	if !ok {
		return zero, false
	}
	return decodeEntry[T](e)
}

func cached[T any](c *Client, key Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.store.Get(key.Hash())
	if !ok || !c.fresh(e) {
		return zero, false
	}
	return decodeEntry[T](e)
}

// decodeEntry returns the typed value of e, decoding hydrated JSON on first
// use. Callers hold c.mu.
func decodeEntry[T any](e *entry) (T, bool) {
	var zero T
	if !e.decoded {
		var v T
		if err := json.Unmarshal(e.raw, &v); err != nil {
			slog.Debug("discarding undecodable cache entry", "key", e.key.Hash(), "error", err)
			return zero, false
		}
		e.value, e.decoded = v, true
	}
	v, ok := e.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
