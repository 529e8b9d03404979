package authz

import (
	"context"
	"net/http"
	"strings"

	"log/slog"

	"github.com/meridian-bms/meridian/internal/platform/httpx"
	"github.com/meridian-bms/meridian/internal/shared"
)

type actorContextKey struct{}

// Actor carries the acting tenant user together with the authorizer bound to
// the snapshot the request was admitted under, so every check within one
// request sees the same confirmed state.
type Actor struct {
	User       TenantUser
	Authorizer Authorizer
}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context, nil when absent.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}

// Middleware wires guard evaluation into HTTP handlers.
type Middleware struct {
	Store  *Store
	Logger *slog.Logger
}

// Require denies the request with a neutral 403 unless the guard admits the
// acting user. On admit the actor is attached to the request context.
func (m Middleware) Require(guard Guard) func(http.Handler) http.Handler {
	return m.RequireWithFallback(guard, nil)
}

// RequireWithFallback behaves like Require but serves fallback on deny
// instead of the default no-access response.
func (m Middleware) RequireWithFallback(guard Guard, fallback http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := m.Store.Snapshot()
			authorizer := NewAuthorizer(snap)
			user, known := m.currentUser(r, snap)

			var actingUser *TenantUser
			if known {
				actingUser = &user
			}
			if !guard.Allows(authorizer, actingUser) {
				m.deny(w, r, fallback)
				return
			}
			ctx := ContextWithActor(r.Context(), &Actor{User: user, Authorizer: authorizer})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireModule gates a route on the module's view permission.
func (m Middleware) RequireModule(module string) func(http.Handler) http.Handler {
	return m.Require(ModuleGuard{Module: module})
}

// RequireModuleAction gates a route on a specific module action.
func (m Middleware) RequireModuleAction(module, action string) func(http.Handler) http.Handler {
	return m.Require(ModuleGuard{Module: module, Action: action})
}

// RequireOwner gates a route on tenant ownership.
func (m Middleware) RequireOwner() func(http.Handler) http.Handler {
	return m.Require(OwnerGuard{})
}

// RequireSuperAdmin gates a route on the super-admin identity fact.
func (m Middleware) RequireSuperAdmin() func(http.Handler) http.Handler {
	return m.Require(SuperAdminGuard{})
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, fallback http.Handler) {
	if fallback != nil {
		fallback.ServeHTTP(w, r)
		return
	}
	httpx.Problem(w, http.StatusForbidden, "No Access", "")
}

func (m Middleware) currentUser(r *http.Request, snap *Snapshot) (TenantUser, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return TenantUser{}, false
	}
	id := strings.TrimSpace(sess.User())
	if id == "" {
		return TenantUser{}, false
	}
	user, ok := snap.TenantUser(id)
	if !ok {
		// Removed from the tenant after the session was issued; treated as
		// not logged in rather than an error.
		if m.Logger != nil {
			m.Logger.Warn("session user not in directory", slog.String("tenant_user_id", id))
		}
		return TenantUser{}, false
	}
	return user, true
}
