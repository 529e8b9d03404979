package roles

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-bms/meridian/internal/authz"
	"github.com/meridian-bms/meridian/internal/catalog"
	"github.com/meridian-bms/meridian/internal/shared"
	"github.com/meridian-bms/meridian/internal/upstream"
	_ "github.com/meridian-bms/meridian/testing"
)

type handlerFixture struct {
	client *fakeClient
	store  *authz.Store
	router chi.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	// The viewer only sees the users module; no users:update means no
	// manage-users capability.
	client := newFakeClient(adminRole(), authz.Role{
		ID:          "r-viewer",
		Name:        "viewer",
		Permissions: []catalog.Permission{"users:view"},
		IsActive:    true,
	})
	client.users = []authz.TenantUser{
		{ID: "u-admin", UserName: "ada", RoleID: "r-admin", IsActive: true},
		{ID: "u-viewer", UserName: "walter", RoleID: "r-viewer", IsActive: true},
	}

	svc, store := newTestService(t, client)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	idem := shared.NewIdempotencyStore(redisClient, time.Hour)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, svc, authz.Middleware{Store: store, Logger: logger}, idem)

	router := chi.NewRouter()
	router.Route("/api/roles", handler.MountRoutes)

	return &handlerFixture{client: client, store: store, router: router}
}

func (f *handlerFixture) request(t *testing.T, method, target, userID, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if userID != "" {
		sess := &shared.Session{}
		sess.SetUser(userID)
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestListRolesRequiresUsersModule(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.request(t, http.MethodGet, "/api/roles/", "u-viewer", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"admin"`)

	rec = f.request(t, http.MethodGet, "/api/roles/", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetRoleNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.request(t, http.MethodGet, "/api/roles/ghost", "u-admin", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRoleRequiresManageUsers(t *testing.T) {
	f := newHandlerFixture(t)
	body := `{"name":"sales_rep","display_name":"Sales Rep","permissions":["crm:view"],"is_active":true}`

	rec := f.request(t, http.MethodPost, "/api/roles/", "u-viewer", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.client.created)

	rec = f.request(t, http.MethodPost, "/api/roles/", "u-admin", body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"sales_rep"`)
}

func TestCreateRoleValidationProblem(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/roles/", "u-admin", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Validation Failed")
}

func TestCreateRoleMalformedBody(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/roles/", "u-admin", `{broken`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRoleIdempotencyConflict(t *testing.T) {
	f := newHandlerFixture(t)
	body := `{"name":"sales_rep","display_name":"Sales Rep","is_active":true}`

	rec := f.request(t, http.MethodPost, "/api/roles/", "u-admin", body, "Idempotency-Key", "req-1")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/roles/", "u-admin", body, "Idempotency-Key", "req-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, f.client.created, 1, "retry with the same key is not applied twice")
}

func TestCreateRoleFailureReleasesIdempotencyKey(t *testing.T) {
	f := newHandlerFixture(t)
	// Invalid permissions fail locally after the key is claimed.
	bad := `{"name":"sales_rep","display_name":"Sales Rep","permissions":["warp:drive"]}`
	good := `{"name":"sales_rep","display_name":"Sales Rep"}`

	rec := f.request(t, http.MethodPost, "/api/roles/", "u-admin", bad, "Idempotency-Key", "req-2")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/roles/", "u-admin", good, "Idempotency-Key", "req-2")
	assert.Equal(t, http.StatusCreated, rec.Code, "failed attempt frees the key for retry")
}

func TestUpdateRolePatch(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.request(t, http.MethodPatch, "/api/roles/r-admin", "u-admin", `{"display_name":"Admins"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"display_name":"Admins"`)
}

func TestUpstreamFailureMapsToBadGateway(t *testing.T) {
	f := newHandlerFixture(t)
	f.client.createErr = &upstream.RemoteError{Status: 503, Message: "maintenance"}

	rec := f.request(t, http.MethodPost, "/api/roles/", "u-admin",
		`{"name":"sales_rep","display_name":"Sales Rep"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
