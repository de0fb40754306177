// AngelaMos | 2026
// entity.go

package chat

import (
	"time"

	"github.com/carterperez-dev/balaoui/internal/state"
)

// Conversation is keyed by product (or none) and an unordered pair of
// members, stored canonically with ParticipantA < ParticipantB.
type Conversation struct {
	ID            string    `db:"id"`
	ProductID     *string   `db:"product_id"`
	ParticipantA  string    `db:"participant_a"`
	ParticipantB  string    `db:"participant_b"`
	LastMessageAt time.Time `db:"last_message_at"`
	CreatedAt     time.Time `db:"created_at"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.ParticipantA == userID || c.ParticipantB == userID)
}

func (c *Conversation) Other(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

func (c *Conversation) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

type Message struct {
	ID             string    `db:"id"`
	ConversationID string    `db:"conversation_id"`
	SenderID       string    `db:"sender_id"`
	Text           string    `db:"text"`
	IsSystem       bool      `db:"is_system"`
	DedupeKey      *string   `db:"dedupe_key"`
	CreatedAt      time.Time `db:"created_at"`
}

// Summary is a conversation row of the inbox with its latest message.
type Summary struct {
	Conversation
	LastMessage *string `db:"last_message"`
}

// canonicalPair orders two member ids so either argument order maps to the
// same row.
func canonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

func (c *Conversation) Snapshot() state.Conversation {
	return state.Conversation{
		ID:            c.ID,
		ProductID:     c.ProductID,
		Participants:  [2]string{c.ParticipantA, c.ParticipantB},
		LastMessageAt: c.LastMessageAt,
	}
}

func (m *Message) Snapshot() state.Message {
	return state.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		IsSystem:       m.IsSystem,
		CreatedAt:      m.CreatedAt,
	}
}
