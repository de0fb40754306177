// AngelaMos | 2026
// handler.go

package product

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/middleware"
	"github.com/carterperez-dev/balaoui/internal/money"
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
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/products", func(r chi.Router) {
		r.With(optionalAuth).Get("/", h.Browse)
		r.With(optionalAuth).Get("/{productID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Get("/mine", h.ListMine)
			r.Post("/", h.Create)
			r.Put("/{productID}", h.Update)
			r.Delete("/{productID}", h.Delete)
		})
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/products", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListAll)
		r.Post("/{productID}/moderate", h.Moderate)
	})
}

func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromQuery(r)

	products, total, err := h.service.Browse(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToProductResponseList(products), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.service.Get(ctx, chi.URLParam(r, "productID"),
		middleware.GetUserID(ctx), middleware.IsAdmin(ctx))
	if err != nil {
		core.HandleError(w, err, "product")
		return
	}

	core.OK(w, ToProductResponse(p))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromQuery(r)
	params.Status = Status(r.URL.Query().Get("status"))

	products, total, err := h.service.ListBySeller(r.Context(), middleware.GetUserID(r.Context()), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToProductResponseList(products), params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadBody(w, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "product")
		return
	}

	core.Created(w, ToProductResponse(p))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadBody(w, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()),
		chi.URLParam(r, "productID"), req)
	if err != nil {
		core.HandleError(w, err, "product")
		return
	}

	core.OK(w, ToProductResponse(p))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.service.Delete(ctx, middleware.GetUserID(ctx), middleware.IsAdmin(ctx),
		chi.URLParam(r, "productID"))
	if err != nil {
		core.HandleError(w, err, "product")
		return
	}

	core.NoContent(w)
}

// ListAll is the admin moderation table.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromQuery(r)
	params.Status = Status(r.URL.Query().Get("status"))

	products, total, err := h.service.ListAll(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToProductResponseList(products), params.Page, params.PageSize, total)
}

func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	var req ModerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadBody(w, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.Moderate(r.Context(), middleware.GetUserID(r.Context()),
		chi.URLParam(r, "productID"), req.Status, req.Version)
	if err != nil {
		core.HandleError(w, err, "product")
		return
	}

	core.OK(w, ToProductResponse(p))
}

func listParamsFromQuery(r *http.Request) ListParams {
	q := r.URL.Query()

	params := ListParams{
		Page:     intQuery(q.Get("page"), 1),
		PageSize: intQuery(q.Get("page_size"), 24),
		Search:   q.Get("search"),
		Category: q.Get("category"),
		City:     q.Get("city"),
		SellerID: q.Get("seller_id"),
	}

	if v, err := money.Parse(q.Get("min_price")); err == nil {
		params.MinPrice = v
	}
	if v, err := money.Parse(q.Get("max_price")); err == nil {
		params.MaxPrice = v
	}

	params.Normalize()
	return params
}

func intQuery(val string, defaultVal int) int {
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
