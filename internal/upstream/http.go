package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meridian-bms/meridian/internal/authz"
	"github.com/meridian-bms/meridian/internal/catalog"
)

// HTTPClient implements Client over the Meridian REST API.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPClient constructs a client for the given base URL. The bearer token
// authenticates this service against the upstream API.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type roleDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"is_active"`
}

type tenantUserDTO struct {
	ID                string    `json:"id"`
	UserName          string    `json:"user_name"`
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Avatar            string    `json:"avatar"`
	IsActive          bool      `json:"is_active"`
	JoinedAt          time.Time `json:"joined_at"`
	RoleID            string    `json:"role_id"`
	CustomPermissions []string  `json:"custom_permissions"`
	IsOwner           bool      `json:"is_owner"`
	IsSuperAdmin      bool      `json:"is_super_admin"`
}

// ListRoles fetches all tenant roles.
func (c *HTTPClient) ListRoles(ctx context.Context) ([]authz.Role, error) {
	var dtos []roleDTO
	if err := c.do(ctx, http.MethodGet, "/tenant/roles", nil, &dtos); err != nil {
		return nil, err
	}
	roles := make([]authz.Role, 0, len(dtos))
	for _, dto := range dtos {
		roles = append(roles, dto.toDomain())
	}
	return roles, nil
}

// ListTenantUsers fetches all tenant users.
func (c *HTTPClient) ListTenantUsers(ctx context.Context) ([]authz.TenantUser, error) {
	var dtos []tenantUserDTO
	if err := c.do(ctx, http.MethodGet, "/tenant/users", nil, &dtos); err != nil {
		return nil, err
	}
	users := make([]authz.TenantUser, 0, len(dtos))
	for _, dto := range dtos {
		users = append(users, dto.toDomain())
	}
	return users, nil
}

// CreateRole submits a new role and returns the server-confirmed entity.
func (c *HTTPClient) CreateRole(ctx context.Context, data CreateRoleData) (authz.Role, error) {
	var dto roleDTO
	if err := c.do(ctx, http.MethodPost, "/tenant/roles", data, &dto); err != nil {
		return authz.Role{}, err
	}
	return dto.toDomain(), nil
}

// UpdateRole patches an existing role.
func (c *HTTPClient) UpdateRole(ctx context.Context, id string, data UpdateRoleData) (authz.Role, error) {
	var dto roleDTO
	if err := c.do(ctx, http.MethodPatch, "/tenant/roles/"+url.PathEscape(id), data, &dto); err != nil {
		return authz.Role{}, err
	}
	return dto.toDomain(), nil
}

// UpdateTenantUser patches a tenant user.
func (c *HTTPClient) UpdateTenantUser(ctx context.Context, id string, data UpdateTenantUserData) (authz.TenantUser, error) {
	var dto tenantUserDTO
	if err := c.do(ctx, http.MethodPatch, "/tenant/users/"+url.PathEscape(id), data, &dto); err != nil {
		return authz.TenantUser{}, err
	}
	return dto.toDomain(), nil
}

// RemoveTenantUser removes a user from the tenant. Terminal; distinct from
// deactivation.
func (c *HTTPClient) RemoveTenantUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tenant/users/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("upstream: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("upstream: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &RemoteError{Message: err.Error()}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &RemoteError{Status: res.StatusCode, Message: failureMessage(res)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &RemoteError{Status: res.StatusCode, Message: "malformed response from server"}
	}
	return nil
}

// failureMessage extracts a human-readable message from a failure payload,
// falling back to the HTTP status text.
func failureMessage(res *http.Response) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(&payload); err == nil {
		for _, msg := range []string{payload.Message, payload.Error, payload.Detail} {
			if strings.TrimSpace(msg) != "" {
				return msg
			}
		}
	}
	return http.StatusText(res.StatusCode)
}

func (d roleDTO) toDomain() authz.Role {
	return authz.Role{
		ID:          d.ID,
		Name:        d.Name,
		DisplayName: d.DisplayName,
		Description: d.Description,
		Permissions: toPermissions(d.Permissions),
		IsActive:    d.IsActive,
	}
}

func (d tenantUserDTO) toDomain() authz.TenantUser {
	return authz.TenantUser{
		ID:                d.ID,
		UserName:          d.UserName,
		Email:             d.Email,
		FirstName:         d.FirstName,
		LastName:          d.LastName,
		Avatar:            d.Avatar,
		IsActive:          d.IsActive,
		JoinedAt:          d.JoinedAt,
		RoleID:            d.RoleID,
		CustomPermissions: toPermissions(d.CustomPermissions),
		IsOwner:           d.IsOwner,
		IsSuperAdmin:      d.IsSuperAdmin,
	}
}

func toPermissions(tokens []string) []catalog.Permission {
	perms := make([]catalog.Permission, 0, len(tokens))
	for _, t := range tokens {
		perms = append(perms, catalog.Permission(t))
	}
	return perms
}
