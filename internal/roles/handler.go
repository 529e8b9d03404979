package roles

import (
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-bms/meridian/internal/authz"
	"github.com/meridian-bms/meridian/internal/catalog"
	"github.com/meridian-bms/meridian/internal/platform/httpx"
	"github.com/meridian-bms/meridian/internal/shared"
)

// Handler manages role management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guards  authz.Middleware
	idem    *shared.IdempotencyStore
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guards authz.Middleware, idem *shared.IdempotencyStore) *Handler {
	return &Handler{logger: logger, service: service, guards: guards, idem: idem}
}

// MountRoutes registers role routes. Viewing requires the users module;
// mutation requires the manage-users capability.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guards.RequireModule("users"))
		r.Get("/", h.listRoles)
		r.Get("/{roleID}", h.getRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guards.Require(authz.ManageUsersGuard{}))
		r.Post("/", h.createRole)
		r.Patch("/{roleID}", h.updateRole)
	})
}

type roleView struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	DisplayName string               `json:"display_name"`
	Description string               `json:"description"`
	Permissions []catalog.Permission `json:"permissions"`
	IsActive    bool                 `json:"is_active"`
}

func toRoleView(role authz.Role) roleView {
	return roleView{
		ID:          role.ID,
		Name:        role.Name,
		DisplayName: role.DisplayName,
		Description: role.Description,
		Permissions: authz.NewPermissionSet(role.Permissions...).Slice(),
		IsActive:    role.IsActive,
	}
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.service.List(r.Context())
	views := make([]roleView, 0, len(roles))
	for _, role := range roles {
		views = append(views, toRoleView(role))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.Get(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleView(role))
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var input CreateRoleInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	key, release, err := h.claimIdempotency(r, "roles")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	role, err := h.service.Create(r.Context(), input)
	if err != nil {
		release()
		h.respondError(w, r, err)
		return
	}
	if key != "" {
		h.logger.Info("role created", slog.String("role", role.Name), slog.String("idempotency_key", key))
	}
	httpx.JSON(w, http.StatusCreated, toRoleView(role))
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var input UpdateRoleInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	_, release, err := h.claimIdempotency(r, "roles")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	role, err := h.service.Update(r.Context(), chi.URLParam(r, "roleID"), input)
	if err != nil {
		release()
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleView(role))
}

// claimIdempotency claims the request's Idempotency-Key, if any. The release
// func frees the key when the operation fails so the caller can retry.
func (h *Handler) claimIdempotency(r *http.Request, module string) (string, func(), error) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" || h.idem == nil {
		return "", func() {}, nil
	}
	if err := h.idem.CheckAndInsert(r.Context(), key, module); err != nil {
		return key, func() {}, err
	}
	return key, func() {
		if err := h.idem.Delete(r.Context(), key, module); err != nil {
			h.logger.Warn("release idempotency key", slog.Any("error", err))
		}
	}, nil
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.FieldProblem(w, http.StatusBadRequest, "Validation Failed", verr.Fields)
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		if errors.Is(err, httpx.ErrUpstream) {
			h.logger.Error("upstream call failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
