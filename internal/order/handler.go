// AngelaMos | 2026
// handler.go

package order

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Checkout)
		r.Get("/quote", h.Quote)
		r.Get("/purchases", h.ListPurchases)
		r.Get("/sales", h.ListSales)
		r.Get("/{orderID}", h.Get)
		r.Post("/{orderID}/ship", h.Ship)
		r.Post("/{orderID}/deliver", h.Deliver)
		r.Post("/{orderID}/complete", h.Complete)
		r.Post("/{orderID}/cancel", h.Cancel)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/orders", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListAll)
		r.Put("/{orderID}/status", h.UpdateStatus)
	})
}

func actorFrom(r *http.Request) Actor {
	return Actor{
		ID:      middleware.GetUserID(r.Context()),
		IsAdmin: middleware.IsAdmin(r.Context()),
	}
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	o, err := h.service.Checkout(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			core.JSONError(w, core.ConflictError("this item has just been sold"))
			return
		}
		core.HandleError(w, err, "product")
		return
	}

	core.Created(w, ToOrderResponse(o))
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		core.BadRequest(w, "product_id is required")
		return
	}

	quote, err := h.service.Quote(r.Context(), productID)
	if err != nil {
		core.HandleError(w, err, "product")
		return
	}

	core.OK(w, quote)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"))
	if err != nil {
		core.HandleError(w, err, "order")
		return
	}

	core.OK(w, ToOrderResponse(o))
}

func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	params := paramsFromQuery(r)

	orders, total, err := h.service.ListPurchases(r.Context(), middleware.GetUserID(r.Context()), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToOrderResponseList(orders), params.Page, params.PageSize, total)
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	params := paramsFromQuery(r)

	orders, total, err := h.service.ListSales(r.Context(), middleware.GetUserID(r.Context()), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToOrderResponseList(orders), params.Page, params.PageSize, total)
}

// ListAll feeds the admin shipping table.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	params := paramsFromQuery(r)

	orders, total, err := h.service.ListAll(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToOrderResponseList(orders), params.Page, params.PageSize, total)
}

func (h *Handler) Ship(w http.ResponseWriter, r *http.Request) {
	var req ShipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	o, err := h.service.Ship(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"), req)
	if err != nil {
		core.HandleError(w, err, "order")
		return
	}

	core.OK(w, ToOrderResponse(o))
}

func (h *Handler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.service.Deliver)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.service.Complete)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.service.Cancel)
}

type transitionFunc func(ctx context.Context, actor Actor, orderID string, version *int) (*Order, error)

// simpleTransition serves the bodyless transitions; a body, when sent, may
// pin the expected version.
func (h *Handler) simpleTransition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	o, err := fn(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"), req.Version)
	if err != nil {
		core.HandleError(w, err, "order")
		return
	}

	core.OK(w, ToOrderResponse(o))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	o, err := h.service.UpdateStatus(r.Context(), actorFrom(r), chi.URLParam(r, "orderID"), req.Status, req.Version)
	if err != nil {
		core.HandleError(w, err, "order")
		return
	}

	core.OK(w, ToOrderResponse(o))
}

func paramsFromQuery(r *http.Request) ListParams {
	q := r.URL.Query()
	params := ListParams{Status: Status(q.Get("status"))}

	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		params.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil {
		params.PageSize = v
	}

	params.Normalize()
	return params
}
