// AngelaMos | 2026
// handler.go

package ledger

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/balaoui/internal/core"
	"github.com/carterperez-dev/balaoui/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.With(authenticator).Get("/transactions", h.ListMine)
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.With(authenticator, adminOnly).Get("/admin/transactions", h.ListAll)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	params := paramsFromQuery(r)

	txs, total, err := h.service.ListForUser(r.Context(), middleware.GetUserID(r.Context()), params)
	if err != nil {
		core.HandleError(w, err, "transaction")
		return
	}

	core.Paginated(w, ToTransactionResponseList(txs), params.Page, params.PageSize, total)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	params := paramsFromQuery(r)
	params.UserID = r.URL.Query().Get("user_id")

	txs, total, err := h.service.ListAll(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToTransactionResponseList(txs), params.Page, params.PageSize, total)
}

func paramsFromQuery(r *http.Request) ListParams {
	q := r.URL.Query()
	params := ListParams{Type: Type(q.Get("type"))}

	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		params.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil {
		params.PageSize = v
	}

	params.Normalize()
	return params
}
