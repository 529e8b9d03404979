// Package upstream talks to the authoritative Meridian API. The server owns
// roles and tenant membership; this client only fetches confirmed state and
// submits management operations. It never caches.
package upstream

import (
	"context"

	"github.com/meridian-bms/meridian/internal/authz"
	"github.com/meridian-bms/meridian/internal/catalog"
)

// CreateRoleData is the payload for creating a role.
type CreateRoleData struct {
	Name        string               `json:"name"`
	DisplayName string               `json:"display_name"`
	Description string               `json:"description"`
	Permissions []catalog.Permission `json:"permissions"`
	IsActive    bool                 `json:"is_active"`
}

// UpdateRoleData is the payload for updating a role. Nil fields are left
// unchanged server-side. The machine name is immutable post-creation and is
// deliberately absent.
type UpdateRoleData struct {
	DisplayName *string               `json:"display_name,omitempty"`
	Description *string               `json:"description,omitempty"`
	Permissions *[]catalog.Permission `json:"permissions,omitempty"`
	IsActive    *bool                 `json:"is_active,omitempty"`
}

// UpdateTenantUserData is the payload for updating a tenant user.
type UpdateTenantUserData struct {
	RoleID            *string               `json:"role_id,omitempty"`
	CustomPermissions *[]catalog.Permission `json:"custom_permissions,omitempty"`
	IsActive          *bool                 `json:"is_active,omitempty"`
}

// Client is the external collaborator contract consumed by the management
// services and the snapshot refresher.
type Client interface {
	ListRoles(ctx context.Context) ([]authz.Role, error)
	ListTenantUsers(ctx context.Context) ([]authz.TenantUser, error)
	CreateRole(ctx context.Context, data CreateRoleData) (authz.Role, error)
	UpdateRole(ctx context.Context, id string, data UpdateRoleData) (authz.Role, error)
	UpdateTenantUser(ctx context.Context, id string, data UpdateTenantUserData) (authz.TenantUser, error)
	RemoveTenantUser(ctx context.Context, id string) error
}
