// AngelaMos | 2026
// handler.go

package moderation

import (
	"encoding/json"
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

func (h *Handler) RegisterRoutes(r chi.Router, authenticator func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/reports/reasons", h.Reasons)
		r.Post("/reports", h.CreateReport)
		r.Post("/disputes", h.OpenDispute)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/reports", h.ListReports)
		r.Post("/reports/{reportID}/resolve", h.ResolveReport)
		r.Get("/disputes", h.ListDisputes)
		r.Post("/disputes/{disputeID}/resolve", h.ResolveDispute)
	})
}

func (h *Handler) Reasons(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, ReportReasons)
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if !h.decode(w, r, &req) {
		return
	}

	rep, err := h.service.CreateReport(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "product")
		return
	}

	core.Created(w, ToReportResponse(rep))
}

func (h *Handler) OpenDispute(w http.ResponseWriter, r *http.Request) {
	var req OpenDisputeRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.OpenDispute(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "order")
		return
	}

	core.Created(w, ToDisputeResponse(d))
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromQuery(r)

	reports, total, err := h.service.ListReports(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, ToReportResponse(&reports[i]))
	}
	core.Paginated(w, out, params.Page, params.PageSize, total)
}

func (h *Handler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	var req ResolveReportRequest
	if !h.decode(w, r, &req) {
		return
	}

	rep, err := h.service.ResolveReport(r.Context(), middleware.GetUserID(r.Context()),
		chi.URLParam(r, "reportID"), req.Status)
	if err != nil {
		core.HandleError(w, err, "report")
		return
	}

	core.OK(w, ToReportResponse(rep))
}

func (h *Handler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromQuery(r)

	disputes, total, err := h.service.ListDisputes(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]DisputeResponse, 0, len(disputes))
	for i := range disputes {
		out = append(out, ToDisputeResponse(&disputes[i]))
	}
	core.Paginated(w, out, params.Page, params.PageSize, total)
}

func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	var req ResolveDisputeRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.ResolveDispute(r.Context(), middleware.GetUserID(r.Context()),
		chi.URLParam(r, "disputeID"), req)
	if err != nil {
		core.HandleError(w, err, "dispute")
		return
	}

	core.OK(w, ToDisputeResponse(d))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	return true
}

func listParamsFromQuery(r *http.Request) ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))          //nolint:errcheck // defaults below
	pageSize, _ := strconv.Atoi(q.Get("page_size")) //nolint:errcheck // defaults below

	params := ListParams{Page: page, PageSize: pageSize, Status: q.Get("status")}
	params.Normalize()
	return params
}
