// AngelaMos | 2026
// handler.go

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/middleware"
	"github.com/carterperez-dev/balaoui/internal/state"
)

// ConversationSource loads the inbox a stream session starts from.
type ConversationSource interface {
	Snapshot(ctx context.Context, userID string) ([]state.Conversation, error)
}

type Handler struct {
	subscriber Subscriber
	source     ConversationSource
	heartbeat  time.Duration
}

func NewHandler(subscriber Subscriber, source ConversationSource, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &Handler{
		subscriber: subscriber,
		source:     source,
		heartbeat:  heartbeat,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, authenticator func(http.Handler) http.Handler) {
	r.With(middleware.QueryToken, authenticator).Get("/realtime", h.Stream)
}

func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	sub, err := h.subscriber.Subscribe(ctx, userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	defer sub.Close() //nolint:errcheck // connection is going away

	store := state.NewStore()
	if err := h.reseed(ctx, store, userID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	rc := http.NewResponseController(w)
	//nolint:errcheck // recorders and some proxies do not support deadlines
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	slog.InfoContext(ctx, "realtime stream opened", "user_id", userID)
	defer slog.InfoContext(ctx, "realtime stream closed", "user_id", userID)

	if err := h.send(w, rc, inboxEvent(store)); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}

		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := h.handle(ctx, w, rc, store, userID, ev); err != nil {
				slog.DebugContext(ctx, "realtime stream write failed", "user_id", userID, "error", err)
				return
			}
		}
	}
}

func (h *Handler) handle(
	ctx context.Context,
	w http.ResponseWriter,
	rc *http.ResponseController,
	store *state.Store,
	userID string,
	ev state.Event,
) error {
	switch store.Apply(ev) {
	case state.Forward:
		return h.send(w, rc, ev)

	case state.Refetch:
		if err := h.reseed(ctx, store, userID); err != nil {
			slog.WarnContext(ctx, "realtime re-fetch failed", "user_id", userID, "error", err)
			return nil
		}
		// a message for a conversation we had not seen yet arrives with the
		// fresh snapshot; forward it once so the client can toast it
		if ev.Type == state.EventMessage {
			if err := h.send(w, rc, ev); err != nil {
				return err
			}
		}
		return h.send(w, rc, inboxEvent(store))
	}

	return nil
}

func (h *Handler) reseed(ctx context.Context, store *state.Store, userID string) error {
	convs, err := h.source.Snapshot(ctx, userID)
	if err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}
	store.Conversations.Replace(convs)
	return nil
}

func (h *Handler) send(w http.ResponseWriter, rc *http.ResponseController, ev state.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return rc.Flush()
}

func inboxEvent(store *state.Store) state.Event {
	return state.Event{
		Type:          state.EventConversations,
		Conversations: store.Inbox(),
		SentAt:        time.Now().UTC(),
	}
}
