// AngelaMos | 2026
// event.go

package state

import "time"

type EventType string

const (
	EventMessage              EventType = "message"
	EventConversationsChanged EventType = "conversations_changed"
	EventConversations        EventType = "conversations"
)

// Event is a realtime push addressed to one member.
type Event struct {
	Type          EventType      `json:"type"`
	Message       *Message       `json:"message,omitempty"`
	Conversations []Conversation `json:"conversations,omitempty"`
	Link          string         `json:"link,omitempty"`
	SentAt        time.Time      `json:"sent_at"`
}

func MessageEvent(m Message, link View) Event {
	ev := Event{Type: EventMessage, Message: &m, SentAt: time.Now().UTC()}
	if link != nil {
		ev.Link = link.Path()
	}
	return ev
}

func ConversationsChangedEvent() Event {
	return Event{Type: EventConversationsChanged, SentAt: time.Now().UTC()}
}

type Outcome int

const (
	Drop Outcome = iota
	Forward
	Refetch
)

// Apply folds ev into the store and says what the session should do with it.
func (s *Store) Apply(ev Event) Outcome {
	switch ev.Type {
	case EventMessage:
		if ev.Message == nil {
			return Drop
		}
		if _, ok := s.Conversations.Get(ev.Message.ConversationID); !ok {
			return Refetch
		}
		if s.AppendMessage(*ev.Message) {
			return Forward
		}
		return Drop
	case EventConversationsChanged:
		return Refetch
	default:
		return Forward
	}
}

// Inbox renders the conversation list without message bodies.
func (s *Store) Inbox() []Conversation {
	convs := s.ConversationsByRecency()
	for i := range convs {
		convs[i].Messages = nil
	}
	return convs
}
