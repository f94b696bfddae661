package query

import (
	"encoding/json"
	"fmt"
	"time"
)

// DehydratedState is the serializable snapshot of a Client.
type DehydratedState struct {
	Queries []DehydratedQuery `json:"queries"`
}

// DehydratedQuery is one cache entry in a snapshot.
type DehydratedQuery struct {
	QueryKey  Key        `json:"queryKey"`
	QueryHash string     `json:"queryHash"`
	State     QueryState `json:"state"`
}

// QueryState carries the data of an entry and when it was fetched, in Unix
// milliseconds.
type QueryState struct {
	Data          json.RawMessage `json:"data"`
	DataUpdatedAt int64           `json:"dataUpdatedAt"`
}

// Payload is loader data with the cache snapshot taken after producing it.
type Payload[T any] struct {
	Data            T                `json:"data"`
	DehydratedState *DehydratedState `json:"dehydratedState,omitempty"`
}

// Dehydrate snapshots every cached entry, oldest first. Invalidated entries
// are left out.
func (c *Client) Dehydrate() (*DehydratedState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := &DehydratedState{Queries: []DehydratedQuery{}}
	for _, hash := range c.store.Keys() {
		e, ok := c.store.Peek(hash)
		if !ok || e.invalid {
			continue
		}

		data := e.raw
		if e.decoded {
			b, err := json.Marshal(e.value)
			if err != nil {
				return nil, fmt.Errorf("encoding query %s: %w", hash, err)
			}
			data = b
		}

		state.Queries = append(state.Queries, DehydratedQuery{
			QueryKey:  e.key,
			QueryHash: hash,
			State: QueryState{
				Data:          data,
				DataUpdatedAt: e.updatedAt.UnixMilli(),
			},
		})
	}

	return state, nil
}

// Hydrate merges a snapshot into the cache. An entry is replaced unless the
// local one was fetched later, so applying the same snapshot twice changes
// nothing.
func (c *Client) Hydrate(state *DehydratedState) {
	if state == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, q := range state.Queries {
		hash := q.QueryHash
		if hash == "" {
			hash = q.QueryKey.Hash()
		}
		updatedAt := time.UnixMilli(q.State.DataUpdatedAt)

		if existing, ok := c.store.Peek(hash); ok && existing.updatedAt.After(updatedAt) && !existing.invalid {
			continue
		}

		raw := make(json.RawMessage, len(q.State.Data))
		copy(raw, q.State.Data)
		c.store.Add(hash, &entry{key: q.QueryKey, raw: raw, updatedAt: updatedAt})
	}
}

// WithDehydratedState attaches a snapshot of c to data.
func WithDehydratedState[T any](data T, c *Client) (*Payload[T], error) {
	state, err := c.Dehydrate()
	if err != nil {
		return nil, err
	}
	return &Payload[T]{Data: data, DehydratedState: state}, nil
}

// EnsureHydrated merges the payload's snapshot into c and returns the data
// without it.
func EnsureHydrated[T any](p *Payload[T], c *Client) T {
	c.Hydrate(p.DehydratedState)
	return p.Data
}
