// AngelaMos | 2026
// relay.go

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carterperez-dev/balaoui/internal/config"
	"github.com/carterperez-dev/balaoui/internal/core"
)

const maxBackoff = time.Hour

type Handler interface {
	// Dispatch runs while the batch is claimed and reports whether the event
	// was delivered for the first time.
	Dispatch(ctx context.Context, e Event) (bool, error)
	// Fanout runs after the batch commits, once per first delivery.
	Fanout(ctx context.Context, e Event)
}

type OutboxFactory func(tx core.DBTX) Outbox

// Relay moves pending outbox rows to the Handler. Several replicas may run a
// relay each; rows are claimed with SKIP LOCKED.
type Relay struct {
	tx      core.Transactor
	outbox  OutboxFactory
	handler Handler
	cfg     config.OutboxConfig
	now     func() time.Time
}

func NewRelay(tx core.Transactor, outbox OutboxFactory, handler Handler, cfg config.OutboxConfig) *Relay {
	return &Relay{
		tx:      tx,
		outbox:  outbox,
		handler: handler,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "outbox relay started", "interval", r.cfg.PollInterval)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain processes one batch and returns how many rows were delivered. Fan-out
// waits for the commit so slow mail or Kafka never holds the claimed rows.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	delivered := 0
	var fresh []Event

	err := r.tx.WithTx(ctx, func(tx core.DBTX) error {
		box := r.outbox(tx)
		now := r.now()

		records, err := box.ClaimDue(ctx, now, r.cfg.BatchSize)
		if err != nil {
			return err
		}

		for i := range records {
			event, ok, err := r.deliver(ctx, box, &records[i], now)
			if err != nil {
				return err
			}
			if ok {
				delivered++
			}
			if event != nil {
				fresh = append(fresh, *event)
			}
		}
		return nil
	})
	if err != nil {
		return delivered, fmt.Errorf("drain outbox: %w", err)
	}

	for _, e := range fresh {
		r.handler.Fanout(ctx, e)
	}

	return delivered, nil
}

// deliver returns the event when it still needs fan-out after commit.
func (r *Relay) deliver(ctx context.Context, box Outbox, rec *OutboxRecord, now time.Time) (*Event, bool, error) {
	event, err := rec.Event()
	if err != nil {
		slog.ErrorContext(ctx, "undecodable outbox event", "id", rec.ID, "error", err)
		return nil, false, box.MarkFailed(ctx, rec.ID, err.Error())
	}

	first, dispatchErr := r.handler.Dispatch(ctx, event)
	if dispatchErr == nil {
		if err := box.MarkDelivered(ctx, rec.ID); err != nil {
			return nil, false, err
		}
		if first {
			return &event, true, nil
		}
		return nil, true, nil
	}

	attempt := rec.Attempts + 1
	if attempt >= r.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "outbox event abandoned",
			"id", rec.ID,
			"kind", rec.Kind,
			"attempts", attempt,
			"error", dispatchErr,
		)
		return nil, false, box.MarkFailed(ctx, rec.ID, dispatchErr.Error())
	}

	next := now.Add(r.Backoff(rec.Attempts))
	slog.WarnContext(ctx, "outbox event will be retried",
		"id", rec.ID,
		"kind", rec.Kind,
		"attempt", attempt,
		"next_attempt", next,
		"error", dispatchErr,
	)
	return nil, false, box.MarkRetry(ctx, rec.ID, dispatchErr.Error(), next)
}

// Backoff doubles the base delay per previous attempt, capped at an hour.
func (r *Relay) Backoff(attempts int) time.Duration {
	d := r.cfg.BaseBackoff
	if d <= 0 {
		d = time.Second
	}
	for range attempts {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
