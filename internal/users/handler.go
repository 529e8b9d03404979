package users

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-bms/meridian/internal/authz"
	"github.com/meridian-bms/meridian/internal/catalog"
	"github.com/meridian-bms/meridian/internal/platform/httpx"
	"github.com/meridian-bms/meridian/internal/shared"
)

// Handler manages tenant user endpoints.
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

// MountRoutes registers tenant user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guards.RequireModule("users"))
		r.Get("/", h.listUsers)
		r.Get("/{userID}", h.getUser)
		r.Get("/{userID}/permissions", h.effectivePermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guards.Require(authz.ManageUsersGuard{}))
		r.Patch("/{userID}", h.updateUser)
		r.Delete("/{userID}", h.removeUser)
	})
}

// MountMe registers the self-inspection route used by clients to decide
// what to render.
func (h *Handler) MountMe(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guards.Require(authz.IdentityGuard{}))
		r.Get("/me/permissions", h.myPermissions)
	})
}

type userView struct {
	ID                string               `json:"id"`
	UserName          string               `json:"user_name"`
	Email             string               `json:"email"`
	FirstName         string               `json:"first_name"`
	LastName          string               `json:"last_name"`
	Avatar            string               `json:"avatar,omitempty"`
	IsActive          bool                 `json:"is_active"`
	JoinedAt          time.Time            `json:"joined_at"`
	RoleID            string               `json:"role_id"`
	CustomPermissions []catalog.Permission `json:"custom_permissions"`
	IsOwner           bool                 `json:"is_owner"`
	IsSuperAdmin      bool                 `json:"is_super_admin"`
}

func toUserView(user authz.TenantUser) userView {
	return userView{
		ID:                user.ID,
		UserName:          user.UserName,
		Email:             user.Email,
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		Avatar:            user.Avatar,
		IsActive:          user.IsActive,
		JoinedAt:          user.JoinedAt,
		RoleID:            user.RoleID,
		CustomPermissions: authz.NewPermissionSet(user.CustomPermissions...).Slice(),
		IsOwner:           user.IsOwner,
		IsSuperAdmin:      user.IsSuperAdmin,
	}
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	all := h.service.List(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	paging := shared.NewPagination(page, perPage, len(all))

	start := (paging.Page - 1) * paging.PerPage
	if start > len(all) {
		start = len(all)
	}
	end := start + paging.PerPage
	if end > len(all) {
		end = len(all)
	}

	views := make([]userView, 0, end-start)
	for _, user := range all[start:end] {
		views = append(views, toUserView(user))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users": views,
		"pagination": map[string]int{
			"page":        paging.Page,
			"per_page":    paging.PerPage,
			"total":       paging.Total,
			"total_pages": paging.TotalPages,
		},
	})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserView(user))
}

func (h *Handler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusForbidden, "No Access", "")
		return
	}
	id := chi.URLParam(r, "userID")
	if _, err := h.service.Get(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	// Resolve against the snapshot the request was admitted under.
	effective := actor.Authorizer.ResolveID(id)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"tenant_user_id": id,
		"permissions":    effective.Slice(),
	})
}

func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusForbidden, "No Access", "")
		return
	}
	effective := actor.Authorizer.Resolve(actor.User)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"tenant_user_id":   actor.User.ID,
		"permissions":      effective.Slice(),
		"is_owner":         actor.User.IsOwner,
		"is_super_admin":   actor.User.IsSuperAdmin,
		"can_manage_users": actor.Authorizer.CanManageUsers(actor.User),
	})
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var input UpdateTenantUserInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	release, err := h.claimIdempotency(r, "users")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	user, err := h.service.Update(r.Context(), chi.URLParam(r, "userID"), input)
	if err != nil {
		release()
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserView(user))
}

func (h *Handler) removeUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	release, err := h.claimIdempotency(r, "users")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		release()
		h.respondError(w, r, err)
		return
	}

	// Removing the acting session is legal; the host application is
	// responsible for the forced logout. Flag it so it can react.
	actingRemoved := false
	if actor := authz.ActorFromContext(r.Context()); actor != nil && actor.User.ID == id {
		actingRemoved = true
		h.logger.Warn("acting session removed itself from tenant", slog.String("tenant_user_id", id))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"removed":                id,
		"acting_session_removed": actingRemoved,
	})
}

func (h *Handler) claimIdempotency(r *http.Request, module string) (func(), error) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" || h.idem == nil {
		return func() {}, nil
	}
	if err := h.idem.CheckAndInsert(r.Context(), key, module); err != nil {
		return func() {}, err
	}
	return func() {
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
