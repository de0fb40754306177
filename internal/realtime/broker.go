// AngelaMos | 2026
// broker.go

// Package realtime fans member events out over Redis pub/sub and streams them
// to browsers as server-sent events.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/balaoui/internal/state"
)

type Subscription interface {
	Events() <-chan state.Event
	Close() error
}

type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (Subscription, error)
}

type Broker struct {
	client *redis.Client
	prefix string
}

func NewBroker(client *redis.Client, prefix string) *Broker {
	if prefix == "" {
		prefix = "rt:user:"
	}
	return &Broker{client: client, prefix: prefix}
}

func (b *Broker) channel(userID string) string {
	return b.prefix + userID
}

func (b *Broker) Publish(ctx context.Context, userID string, ev state.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode realtime event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel(userID), payload).Err(); err != nil {
		return fmt.Errorf("publish realtime event: %w", err)
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, userID string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, b.channel(userID))

	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close() //nolint:errcheck // subscription never became usable
		return nil, fmt.Errorf("subscribe %s: %w", userID, err)
	}

	sub := &redisSubscription{
		ps:     ps,
		events: make(chan state.Event, 16),
	}
	go sub.pump(ctx)
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan state.Event
}

func (s *redisSubscription) Events() <-chan state.Event {
	return s.events
}

func (s *redisSubscription) Close() error {
	return s.ps.Close()
}

func (s *redisSubscription) pump(ctx context.Context) {
	defer close(s.events)

	for msg := range s.ps.Channel() {
		var ev state.Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			slog.WarnContext(ctx, "dropping malformed realtime event",
				"channel", msg.Channel,
				"error", err,
			)
			continue
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
