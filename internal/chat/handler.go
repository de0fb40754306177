// AngelaMos | 2026
// handler.go

package chat

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, authenticator func(http.Handler) http.Handler) {
	r.Route("/conversations", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Start)
		r.Get("/{conversationID}/messages", h.Messages)
		r.Post("/{conversationID}/messages", h.Send)
	})
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	userID := middleware.GetUserID(r.Context())

	conv, err := h.service.FindOrCreate(r.Context(), userID, req.RecipientID, req.ProductID)
	if err != nil {
		core.HandleError(w, err, "conversation")
		return
	}

	core.OK(w, ToConversationResponse(conv, userID, nil))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	summaries, err := h.service.List(r.Context(), userID)
	if err != nil {
		core.HandleError(w, err, "conversation")
		return
	}

	out := make([]ConversationResponse, 0, len(summaries))
	for i := range summaries {
		out = append(out, ToConversationResponse(&summaries[i].Conversation, userID, summaries[i].LastMessage))
	}

	core.OK(w, out)
}

func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.service.Messages(r.Context(), middleware.GetUserID(r.Context()),
		chi.URLParam(r, "conversationID"))
	if err != nil {
		core.HandleError(w, err, "conversation")
		return
	}

	core.OK(w, ToMessageResponseList(msgs))
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	msg, err := h.service.Send(r.Context(), middleware.GetUserID(r.Context()),
		chi.URLParam(r, "conversationID"), req.Text)
	if err != nil {
		core.HandleError(w, err, "conversation")
		return
	}

	core.Created(w, ToMessageResponse(msg))
}
