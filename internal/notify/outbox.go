// AngelaMos | 2026
// outbox.go

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carterperez-dev/balaoui/internal/core"
)

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxDelivered OutboxStatus = "delivered"
	OutboxFailed    OutboxStatus = "failed"
)

type OutboxRecord struct {
	ID          string       `db:"id"`
	Kind        Kind         `db:"kind"`
	Payload     []byte       `db:"payload"`
	Status      OutboxStatus `db:"status"`
	Attempts    int          `db:"attempts"`
	LastError   *string      `db:"last_error"`
	AvailableAt time.Time    `db:"available_at"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

func (r *OutboxRecord) Event() (Event, error) {
	var e Event
	if err := json.Unmarshal(r.Payload, &e); err != nil {
		return Event{}, fmt.Errorf("decode outbox %s: %w", r.ID, err)
	}
	return e, nil
}

// Outbox is built on the caller's transaction so an event is stored if and
// only if the status change that produced it commits.
type Outbox interface {
	Enqueue(ctx context.Context, events ...Event) error
	// ClaimDue locks up to limit pending rows; concurrent relays skip them.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]OutboxRecord, error)
	MarkDelivered(ctx context.Context, id string) error
	MarkRetry(ctx context.Context, id, lastErr string, next time.Time) error
	MarkFailed(ctx context.Context, id, lastErr string) error
	CountByStatus(ctx context.Context) (map[OutboxStatus]int, error)
}

type outbox struct {
	db core.DBTX
}

func NewOutbox(db core.DBTX) Outbox {
	return &outbox{db: db}
}

func (o *outbox) Enqueue(ctx context.Context, events ...Event) error {
	query := `
		INSERT INTO notification_outbox (id, kind, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`

	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", e.Kind, err)
		}

		if _, err := o.db.ExecContext(ctx, query, e.ID, e.Kind, payload); err != nil {
			return fmt.Errorf("enqueue %s event: %w", e.Kind, err)
		}
	}

	return nil
}

func (o *outbox) ClaimDue(ctx context.Context, now time.Time, limit int) ([]OutboxRecord, error) {
	query := `
		SELECT id, kind, payload, status, attempts, last_error, available_at, created_at, updated_at
		FROM notification_outbox
		WHERE status = 'pending' AND available_at <= $1
		ORDER BY available_at, created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED`

	var records []OutboxRecord
	if err := o.db.SelectContext(ctx, &records, query, now, limit); err != nil {
		return nil, fmt.Errorf("claim outbox: %w", err)
	}
	return records, nil
}

func (o *outbox) MarkDelivered(ctx context.Context, id string) error {
	query := `
		UPDATE notification_outbox
		SET status = 'delivered', attempts = attempts + 1, last_error = NULL, updated_at = NOW()
		WHERE id = $1`

	result, err := o.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return core.ExpectRows(result, "mark delivered", nil)
}

func (o *outbox) MarkRetry(ctx context.Context, id, lastErr string, next time.Time) error {
	query := `
		UPDATE notification_outbox
		SET attempts = attempts + 1, last_error = $2, available_at = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := o.db.ExecContext(ctx, query, id, lastErr, next)
	if err != nil {
		return fmt.Errorf("mark retry: %w", err)
	}
	return core.ExpectRows(result, "mark retry", nil)
}

func (o *outbox) MarkFailed(ctx context.Context, id, lastErr string) error {
	query := `
		UPDATE notification_outbox
		SET status = 'failed', attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := o.db.ExecContext(ctx, query, id, lastErr)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return core.ExpectRows(result, "mark failed", nil)
}

func (o *outbox) CountByStatus(ctx context.Context) (map[OutboxStatus]int, error) {
	var rows []struct {
		Status OutboxStatus `db:"status"`
		Count  int          `db:"count"`
	}

	query := `SELECT status, COUNT(*) AS count FROM notification_outbox GROUP BY status`
	if err := o.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count outbox: %w", err)
	}

	out := make(map[OutboxStatus]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
