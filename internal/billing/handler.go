// AngelaMos | 2026
// handler.go

package billing

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/middleware"
	"github.com/carterperez-dev/balaoui/internal/user"
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
	r.Route("/billing", func(r chi.Router) {
		r.Get("/prices", h.Prices)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Get("/balance", h.Balance)
			r.Post("/deposit", h.Deposit)
			r.Post("/pro", h.SubscribePro)
			r.Post("/products/{productID}/boost", h.Boost)
		})
	})
}

func (h *Handler) Prices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.service.Prices(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, prices)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Balance(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}
	core.OK(w, toBalance(u))
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadBody(w, err)
		return
	}

	u, err := h.service.Deposit(r.Context(), middleware.GetUserID(r.Context()), req.Amount)
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}
	core.OK(w, toBalance(u))
}

func (h *Handler) SubscribePro(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.SubscribePro(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}
	core.OK(w, toBalance(u))
}

func (h *Handler) Boost(w http.ResponseWriter, r *http.Request) {
	var req BoostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadBody(w, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Boost(r.Context(), middleware.GetUserID(r.Context()),
		chi.URLParam(r, "productID"), req)
	if err != nil {
		core.HandleError(w, err, "product")
		return
	}
	core.OK(w, resp)
}

func toBalance(u *user.User) BalanceResponse {
	return BalanceResponse{
		Balance:      u.Balance,
		IsPro:        u.IsPro,
		ProExpiresAt: u.ProExpiresAt,
	}
}
