// AngelaMos | 2026
// repository.go

package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/balaoui/internal/core"
)

type Repository interface {
	FindOrCreate(ctx context.Context, a, b string, productID *string) (*Conversation, error)
	GetByID(ctx context.Context, id string) (*Conversation, error)
	GetForUpdate(ctx context.Context, id string) (*Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]Summary, error)
	// AppendMessage reports false when a message with the same dedupe key
	// already exists.
	AppendMessage(ctx context.Context, msg *Message) (bool, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
}

const conversationColumns = `
	id, product_id, participant_a, participant_b, last_message_at, created_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) FindOrCreate(
	ctx context.Context,
	a, b string,
	productID *string,
) (*Conversation, error) {
	first, second := canonicalPair(a, b)

	insert := `
		INSERT INTO conversations (id, product_id, participant_a, participant_b)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`

	if _, err := r.db.ExecContext(ctx, insert, uuid.New().String(), productID, first, second); err != nil {
		if core.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("create conversation: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	var conv Conversation
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE participant_a = $1 AND participant_b = $2
		  AND product_id IS NOT DISTINCT FROM $3`

	if err := r.db.GetContext(ctx, &conv, query, first, second, productID); err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &conv, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Conversation, error) {
	return r.getOne(ctx, "get conversation",
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, id string) (*Conversation, error) {
	return r.getOne(ctx, "lock conversation",
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) getOne(ctx context.Context, op, query string, args ...any) (*Conversation, error) {
	var conv Conversation
	err := r.db.GetContext(ctx, &conv, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &conv, nil
}

func (r *repository) ListForUser(ctx context.Context, userID string) ([]Summary, error) {
	query := `
		SELECT c.id, c.product_id, c.participant_a, c.participant_b,
		       c.last_message_at, c.created_at, m.text AS last_message
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT text FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC
			LIMIT 1
		) m ON TRUE
		WHERE c.participant_a = $1 OR c.participant_b = $1
		ORDER BY c.last_message_at DESC`

	var rows []Summary
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return rows, nil
}

// AppendMessage stamps the message no earlier than the conversation's last
// activity so ordering by created_at never goes backwards.
func (r *repository) AppendMessage(ctx context.Context, msg *Message) (bool, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	insert := `
		INSERT INTO messages (id, conversation_id, sender_id, text, is_system, dedupe_key, created_at)
		SELECT $1, c.id, $3, $4, $5, $6, GREATEST(NOW(), c.last_message_at)
		FROM conversations c
		WHERE c.id = $2
		ON CONFLICT DO NOTHING
		RETURNING created_at`

	err := r.db.GetContext(ctx, &msg.CreatedAt, insert,
		msg.ID,
		msg.ConversationID,
		msg.SenderID,
		msg.Text,
		msg.IsSystem,
		msg.DedupeKey,
	)
	if errors.Is(err, sql.ErrNoRows) {
		if msg.DedupeKey != nil {
			return false, nil
		}
		return false, fmt.Errorf("append message: %w", core.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("append message: %w", err)
	}

	touch := `UPDATE conversations SET last_message_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, touch, msg.ConversationID, msg.CreatedAt); err != nil {
		return false, fmt.Errorf("touch conversation: %w", err)
	}

	return true, nil
}

func (r *repository) ListMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, text, is_system, dedupe_key, created_at
		FROM (
			SELECT * FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC`

	var msgs []Message
	if err := r.db.SelectContext(ctx, &msgs, query, conversationID, limit); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}
