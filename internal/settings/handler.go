// AngelaMos | 2026
// handler.go

package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/balaoui/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type PublicSettingsResponse struct {
	Settings AppSettings `json:"settings"`
	Content  AppContent  `json:"content"`
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Get("/settings", h.Get)

	r.Route("/admin/settings", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Put("/", h.UpdateSettings)
		r.Put("/content", h.UpdateContent)
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.AppSettings(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	c, err := h.service.AppContent(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, PublicSettingsResponse{Settings: s, Content: c})
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req AppSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadBody(w, err)
		return
	}

	updated, err := h.service.UpdateAppSettings(r.Context(), req)
	if err != nil {
		core.HandleError(w, err, "settings")
		return
	}

	core.OK(w, updated)
}

func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var req AppContent
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadBody(w, err)
		return
	}

	updated, err := h.service.UpdateAppContent(r.Context(), req)
	if err != nil {
		core.HandleError(w, err, "settings")
		return
	}

	core.OK(w, updated)
}
