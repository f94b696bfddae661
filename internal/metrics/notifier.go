package metrics

import (
	"context"

	"github.com/daap14/retrospecs/internal/realtime"
)

type countingNotifier struct {
	next realtime.Notifier
	m    *Metrics
}

// Notifier wraps n so that every successful publish is counted.
func (m *Metrics) Notifier(n realtime.Notifier) realtime.Notifier {
	return &countingNotifier{next: n, m: m}
}

func (c *countingNotifier) Publish(ctx context.Context, ch realtime.Change) error {
	if err := c.next.Publish(ctx, ch); err != nil {
		return err
	}
	c.m.ChangesPublished.WithLabelValues(ch.Table).Inc()
	return nil
}
