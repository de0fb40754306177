// AngelaMos | 2026
// dto.go

package chat

import "time"

type StartConversationRequest struct {
	RecipientID string  `json:"recipient_id"         validate:"required,uuid"`
	ProductID   *string `json:"product_id,omitempty" validate:"omitempty,uuid"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type ConversationResponse struct {
	ID            string    `json:"id"`
	ProductID     *string   `json:"product_id,omitempty"`
	Participants  []string  `json:"participants"`
	OtherUserID   string    `json:"other_user_id"`
	LastMessage   *string   `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	IsSystem       bool      `json:"is_system"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToConversationResponse(c *Conversation, viewerID string, lastMessage *string) ConversationResponse {
	return ConversationResponse{
		ID:            c.ID,
		ProductID:     c.ProductID,
		Participants:  c.Participants(),
		OtherUserID:   c.Other(viewerID),
		LastMessage:   lastMessage,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
	}
}

func ToMessageResponse(m *Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		IsSystem:       m.IsSystem,
		CreatedAt:      m.CreatedAt,
	}
}

func ToMessageResponseList(msgs []Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, ToMessageResponse(&msgs[i]))
	}
	return out
}
