// Package users implements tenant user management: role reassignment,
// permission override editing, deactivation, and removal from the tenant.
package users

import "github.com/meridian-bms/meridian/internal/catalog"

// UpdateTenantUserInput is the editor payload for changing a tenant user.
// Nil fields are left unchanged. Custom permissions are strictly additive on
// top of the assigned role; there are no negative overrides.
type UpdateTenantUserInput struct {
	RoleID            *string               `json:"role_id,omitempty"`
	CustomPermissions *[]catalog.Permission `json:"custom_permissions,omitempty"`
	IsActive          *bool                 `json:"is_active,omitempty"`
}
