// AngelaMos | 2026
// dispatcher.go

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/balaoui/internal/auth"
	"github.com/carterperez-dev/balaoui/internal/chat"
	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/state"
)

type Conversations interface {
	FindOrCreate(ctx context.Context, a, b string, productID *string) (*chat.Conversation, error)
	SendSystem(
		ctx context.Context,
		conversationID, senderID, text, dedupeKey string,
		link state.View,
	) (*chat.Message, bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, userID string, ev state.Event) error
}

type Mirror interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type Directory interface {
	GetByID(ctx context.Context, id string) (*auth.UserInfo, error)
}

type Dispatcher struct {
	conversations Conversations
	publisher     Publisher
	mirror        Mirror
	mailer        Mailer
	directory     Directory
}

type DispatcherOption func(*Dispatcher)

func WithMirror(m Mirror) DispatcherOption {
	return func(d *Dispatcher) { d.mirror = m }
}

func WithMailer(m Mailer, dir Directory) DispatcherOption {
	return func(d *Dispatcher) {
		d.mailer = m
		d.directory = dir
	}
}

func NewDispatcher(conversations Conversations, publisher Publisher, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		conversations: conversations,
		publisher:     publisher,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers e as a system message and reports whether this call
// created it. Redelivering the same event is a no-op because the message is
// keyed by the event id.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) (bool, error) {
	ctx, span := core.StartSpan(ctx, "notify.dispatch",
		attribute.String("event.id", e.ID),
		attribute.String("event.kind", string(e.Kind)),
	)
	defer span.End()

	if !e.Deliverable() {
		core.AddSpanEvent(ctx, "notify.skipped")
		return false, nil
	}

	conv, err := d.conversations.FindOrCreate(ctx, e.ActorID, e.RecipientID, e.ProductID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return false, fmt.Errorf("dispatch %s: %w", e.ID, err)
	}

	_, inserted, err := d.conversations.SendSystem(ctx, conv.ID, e.ActorID, Render(e), e.ID, Link(e, conv.ID))
	if err != nil {
		core.SetSpanError(ctx, err)
		return false, fmt.Errorf("dispatch %s: %w", e.ID, err)
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, e.ActorID, state.ConversationsChangedEvent()); err != nil {
			slog.WarnContext(ctx, "conversation refresh not published", "user_id", e.ActorID, "error", err)
		}
	}

	if inserted {
		slog.InfoContext(ctx, "notification delivered",
			"event_id", e.ID,
			"kind", e.Kind,
			"recipient_id", e.RecipientID,
			"conversation_id", conv.ID,
		)
	}
	return inserted, nil
}

// Fanout copies a freshly delivered event to Kafka and e-mail. Both are best
// effort and run outside any transaction.
func (d *Dispatcher) Fanout(ctx context.Context, e Event) {
	d.mirrorEvent(ctx, e)
	d.email(ctx, e)
}

func (d *Dispatcher) mirrorEvent(ctx context.Context, e Event) {
	if d.mirror == nil {
		return
	}

	payload, err := json.Marshal(e)
	if err != nil {
		slog.WarnContext(ctx, "event not mirrored", "event_id", e.ID, "error", err)
		return
	}
	if err := d.mirror.Publish(ctx, e.ID, payload); err != nil {
		slog.WarnContext(ctx, "event not mirrored", "event_id", e.ID, "error", err)
	}
}

func (d *Dispatcher) email(ctx context.Context, e Event) {
	if d.mailer == nil || d.directory == nil {
		return
	}

	recipient, err := d.directory.GetByID(ctx, e.RecipientID)
	if err != nil {
		slog.WarnContext(ctx, "notification e-mail skipped", "event_id", e.ID, "error", err)
		return
	}

	if err := d.mailer.Send(ctx, recipient.Email, Subject(e), Render(e)); err != nil {
		slog.WarnContext(ctx, "notification e-mail failed", "event_id", e.ID, "error", err)
	}
}
