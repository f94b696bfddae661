// Package realtime carries row changes over Redis pub/sub so long-lived query
// caches can invalidate what they hold.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

// DefaultChannel is the pub/sub channel changes are published on.
const DefaultChannel = "retrospecs:changes"

// Change operations.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Change describes one modified row. ParentID is the owning team or sprint
// for child tables (team_members, feedback, actions).
type Change struct {
	Table    string `json:"table"`
	Op       string `json:"op"`
	ID       int64  `json:"id"`
	OrgID    int64  `json:"orgId"`
	ParentID int64  `json:"parentId,omitempty"`
}

// Notifier publishes changes.
type Notifier interface {
	Publish(ctx context.Context, ch Change) error
}

// Nop discards changes. It is used when no Redis is configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, ch Change) error { return nil }

// Publisher publishes changes to a Redis channel.
type Publisher struct {
	rdb     *redis.Client
	channel string
}

// NewPublisher creates a Publisher on channel.
func NewPublisher(rdb *redis.Client, channel string) *Publisher {
	return &Publisher{rdb: rdb, channel: channel}
}

// Publish sends ch to every subscriber.
func (p *Publisher) Publish(ctx context.Context, ch Change) error {
	b, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encoding change: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("publishing change to %s: %w", p.channel, err)
	}
	return nil
}

// Subscriber receives changes from a Redis channel.
type Subscriber struct {
	rdb     *redis.Client
	channel string
}

// NewSubscriber creates a Subscriber on channel.
func NewSubscriber(rdb *redis.Client, channel string) *Subscriber {
	return &Subscriber{rdb: rdb, channel: channel}
}

// Run calls handle for every change until ctx is done. ready, if not nil, is
// closed once the subscription is active.
func (s *Subscriber) Run(ctx context.Context, ready chan<- struct{}, handle func(Change)) error {
	sub := s.rdb.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.channel, err)
	}
	if ready != nil {
		close(ready)
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ch Change
			if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
				slog.Warn("dropping malformed change", "channel", s.channel, "error", err)
				continue
			}
			handle(ch)
		}
	}
}
