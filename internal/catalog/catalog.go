// Package catalog enumerates every permission token the application
// recognises. The catalog is closed and versioned with the build; tenants
// cannot extend it.
package catalog

import "strings"

// Permission is an opaque "<module>:<action>" token.
type Permission string

// Module groups the permissions owned by one functional area.
type Module struct {
	Key         string
	Label       string
	Permissions []Permission
}

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExport = "export"
)

// crudActions is the default action set for a module.
var crudActions = []string{ActionView, ActionCreate, ActionUpdate, ActionDelete}

var modules = []Module{
	crudModule("crm", "CRM"),
	crudModule("hrm", "HRM"),
	crudModule("inventory", "Inventory"),
	crudModule("finance", "Finance"),
	crudModule("projects", "Projects"),
	crudModule("production", "Production"),
	crudModule("quality", "Quality"),
	crudModule("maintenance", "Maintenance"),
	crudModule("users", "Users"),
	{
		Key:   "reports",
		Label: "Reports",
		Permissions: []Permission{
			Token("reports", ActionView),
			Token("reports", ActionExport),
		},
	},
}

var index = buildIndex()

func crudModule(key, label string) Module {
	perms := make([]Permission, 0, len(crudActions))
	for _, action := range crudActions {
		perms = append(perms, Token(key, action))
	}
	return Module{Key: key, Label: label, Permissions: perms}
}

func buildIndex() map[Permission]struct{} {
	idx := make(map[Permission]struct{})
	for _, m := range modules {
		for _, p := range m.Permissions {
			idx[p] = struct{}{}
		}
	}
	return idx
}

// Token builds the canonical permission token for a module/action pair.
func Token(module, action string) Permission {
	return Permission(module + ":" + action)
}

// Modules returns the full catalog in display order.
func Modules() []Module {
	out := make([]Module, len(modules))
	copy(out, modules)
	return out
}

// Find returns the module owning the given key.
func Find(key string) (Module, bool) {
	for _, m := range modules {
		if m.Key == key {
			return m, true
		}
	}
	return Module{}, false
}

// IsValid reports whether token is part of the catalog.
func IsValid(token Permission) bool {
	_, ok := index[token]
	return ok
}

// ModuleOf returns the module portion of a token, or "" when the token does
// not have the "<module>:<action>" shape.
func ModuleOf(token Permission) string {
	module, _, found := strings.Cut(string(token), ":")
	if !found {
		return ""
	}
	return module
}

// ActionOf returns the action portion of a token, or "" for malformed input.
func ActionOf(token Permission) string {
	_, action, found := strings.Cut(string(token), ":")
	if !found {
		return ""
	}
	return action
}
