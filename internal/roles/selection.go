package roles

import (
	"github.com/meridian-bms/meridian/internal/authz"
	"github.com/meridian-bms/meridian/internal/catalog"
)

// ModuleState describes how much of a module's permission list is selected.
type ModuleState int

const (
	ModuleNone ModuleState = iota
	ModuleSome
	ModuleAll
)

// Selection models the permission checkbox grid of the role editor. The
// module-level bulk toggle is sugar over per-permission toggles and is
// idempotent: selecting an already fully selected module changes nothing.
type Selection struct {
	selected authz.PermissionSet
}

// NewSelection seeds a selection with the given tokens. Tokens outside the
// catalog are ignored.
func NewSelection(initial ...catalog.Permission) *Selection {
	s := &Selection{selected: make(authz.PermissionSet)}
	for _, token := range initial {
		if catalog.IsValid(token) {
			s.selected.Add(token)
		}
	}
	return s
}

// Toggle flips a single permission. Unknown tokens are a no-op.
func (s *Selection) Toggle(token catalog.Permission) {
	if !catalog.IsValid(token) {
		return
	}
	if s.selected.Has(token) {
		delete(s.selected, token)
		return
	}
	s.selected.Add(token)
}

// Has reports whether the token is currently selected.
func (s *Selection) Has(token catalog.Permission) bool {
	return s.selected.Has(token)
}

// SelectModule selects every permission in the module.
func (s *Selection) SelectModule(key string) {
	module, ok := catalog.Find(key)
	if !ok {
		return
	}
	for _, token := range module.Permissions {
		s.selected.Add(token)
	}
}

// DeselectModule clears every permission in the module.
func (s *Selection) DeselectModule(key string) {
	module, ok := catalog.Find(key)
	if !ok {
		return
	}
	for _, token := range module.Permissions {
		delete(s.selected, token)
	}
}

// ToggleModule flips the module checkbox: a fully selected module clears,
// anything else selects all.
func (s *Selection) ToggleModule(key string) {
	if s.ModuleState(key) == ModuleAll {
		s.DeselectModule(key)
		return
	}
	s.SelectModule(key)
}

// ModuleState reports the aggregate checkbox state for a module.
func (s *Selection) ModuleState(key string) ModuleState {
	module, ok := catalog.Find(key)
	if !ok || len(module.Permissions) == 0 {
		return ModuleNone
	}
	count := 0
	for _, token := range module.Permissions {
		if s.selected.Has(token) {
			count++
		}
	}
	switch count {
	case 0:
		return ModuleNone
	case len(module.Permissions):
		return ModuleAll
	default:
		return ModuleSome
	}
}

// Permissions returns the selected tokens in lexical order.
func (s *Selection) Permissions() []catalog.Permission {
	return s.selected.Slice()
}
