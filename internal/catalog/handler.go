package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-bms/meridian/internal/platform/httpx"
)

// Handler serves the permission catalog so editors can render the
// permission grid. The catalog is static; responses never vary per tenant.
type Handler struct{}

// NewHandler builds Handler instance.
func NewHandler() *Handler {
	return &Handler{}
}

// MountRoutes registers catalog routes. Access is gated upstream by the
// router; the catalog itself carries no tenant data.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listModules)
}

type moduleView struct {
	Key         string       `json:"key"`
	Label       string       `json:"label"`
	Permissions []Permission `json:"permissions"`
}

func (h *Handler) listModules(w http.ResponseWriter, r *http.Request) {
	mods := Modules()
	views := make([]moduleView, 0, len(mods))
	for _, m := range mods {
		views = append(views, moduleView{Key: m.Key, Label: m.Label, Permissions: m.Permissions})
	}
	httpx.JSON(w, http.StatusOK, views)
}
