// AngelaMos | 2026
// service.go

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/state"
)

const (
	historyLimit  = 200
	snapshotDepth = 50
)

// Publisher pushes realtime events to members' open streams.
type Publisher interface {
	Publish(ctx context.Context, userID string, ev state.Event) error
}

type StoreFactory func(tx core.DBTX) Repository

func TxStores(tx core.DBTX) Repository {
	return NewRepository(tx)
}

type Service struct {
	repo      Repository
	tx        core.Transactor
	stores    StoreFactory
	publisher Publisher
}

func NewService(repo Repository, tx core.Transactor, stores StoreFactory, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		tx:        tx,
		stores:    stores,
		publisher: publisher,
	}
}

// FindOrCreate returns the conversation between a and b about productID, or
// the direct one when productID is nil. Argument order does not matter.
func (s *Service) FindOrCreate(ctx context.Context, a, b string, productID *string) (*Conversation, error) {
	if a == "" || b == "" || a == b {
		return nil, fmt.Errorf("find or create conversation: %w", core.ErrInvalidInput)
	}
	if productID != nil && *productID == "" {
		productID = nil
	}

	conv, err := s.repo.FindOrCreate(ctx, a, b, productID)
	if err != nil {
		return nil, fmt.Errorf("find or create conversation: %w", err)
	}
	return conv, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	if userID == "" {
		return nil, fmt.Errorf("list conversations: %w", core.ErrUnauthorized)
	}
	return s.repo.ListForUser(ctx, userID)
}

func (s *Service) Messages(ctx context.Context, userID, conversationID string) ([]Message, error) {
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("list messages: %w", core.ErrForbidden)
	}
	return s.repo.ListMessages(ctx, conversationID, historyLimit)
}

func (s *Service) Send(ctx context.Context, senderID, conversationID, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("send message: %w", core.ErrInvalidInput)
	}

	msg := &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
	}

	conv, _, err := s.append(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	s.fanOut(ctx, conv, msg, state.Chat{ConversationID: conv.ID})
	return msg, nil
}

// SendSystem appends an automated notice authored by senderID. With a
// dedupe key a second call appends nothing and reports false.
func (s *Service) SendSystem(
	ctx context.Context,
	conversationID, senderID, text, dedupeKey string,
	link state.View,
) (*Message, bool, error) {
	ctx, span := core.StartSpan(ctx, "chat.send_system",
		attribute.String("conversation.id", conversationID),
		attribute.String("dedupe.key", dedupeKey),
	)
	defer span.End()

	msg := &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		IsSystem:       true,
	}
	if dedupeKey != "" {
		msg.DedupeKey = &dedupeKey
	}

	conv, inserted, err := s.append(ctx, msg)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, false, fmt.Errorf("send system message: %w", err)
	}
	if !inserted {
		core.AddSpanEvent(ctx, "chat.duplicate_suppressed")
		return nil, false, nil
	}

	s.fanOut(ctx, conv, msg, link)
	return msg, true, nil
}

func (s *Service) append(ctx context.Context, msg *Message) (*Conversation, bool, error) {
	var (
		conv     *Conversation
		inserted bool
	)

	err := s.tx.WithTx(ctx, func(tx core.DBTX) error {
		repo := s.stores(tx)

		var err error
		conv, err = repo.GetForUpdate(ctx, msg.ConversationID)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(msg.SenderID) {
			return core.ErrForbidden
		}

		inserted, err = repo.AppendMessage(ctx, msg)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return conv, inserted, nil
}

func (s *Service) fanOut(ctx context.Context, conv *Conversation, msg *Message, link state.View) {
	if s.publisher == nil {
		return
	}

	ev := state.MessageEvent(msg.Snapshot(), link)
	for _, userID := range conv.Participants() {
		if err := s.publisher.Publish(ctx, userID, ev); err != nil {
			slog.WarnContext(ctx, "realtime publish failed",
				"conversation_id", conv.ID,
				"user_id", userID,
				"error", err,
			)
		}
	}
}

// Snapshot loads a member's conversations with their recent messages, used to
// seed a realtime session.
func (s *Service) Snapshot(ctx context.Context, userID string) ([]state.Conversation, error) {
	summaries, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("snapshot conversations: %w", err)
	}

	out := make([]state.Conversation, 0, len(summaries))
	for i := range summaries {
		conv := summaries[i].Conversation.Snapshot()

		msgs, err := s.repo.ListMessages(ctx, conv.ID, snapshotDepth)
		if err != nil {
			return nil, fmt.Errorf("snapshot messages: %w", err)
		}
		conv.Messages = make([]state.Message, 0, len(msgs))
		for j := range msgs {
			conv.Messages = append(conv.Messages, msgs[j].Snapshot())
		}

		out = append(out, conv)
	}
	return out, nil
}
