// Package roles implements role management operations: validated
// create/update flows against the upstream API with wholesale snapshot
// refresh on success.
package roles

import (
	"github.com/meridian-bms/meridian/internal/catalog"
)

// CreateRoleInput is the editor payload for a new role.
type CreateRoleInput struct {
	Name        string               `json:"name" validate:"required"`
	DisplayName string               `json:"display_name" validate:"required"`
	Description string               `json:"description"`
	Permissions []catalog.Permission `json:"permissions"`
	IsActive    bool                 `json:"is_active"`
}

// UpdateRoleInput is the editor payload for changing a role. Name is absent:
// the machine key is immutable post-creation.
type UpdateRoleInput struct {
	DisplayName *string               `json:"display_name,omitempty"`
	Description *string               `json:"description,omitempty"`
	Permissions *[]catalog.Permission `json:"permissions,omitempty"`
	IsActive    *bool                 `json:"is_active,omitempty"`
}
