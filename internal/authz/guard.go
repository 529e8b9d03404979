package authz

import "github.com/meridian-bms/meridian/internal/catalog"

// Guard is a declarative gating decision over an application surface.
// Guards never error: an unresolved identity (nil user) always denies, and
// a malformed user degrades to deny through the resolver.
type Guard interface {
	// Allows reports whether the acting user may access the gated surface.
	Allows(a Authorizer, user *TenantUser) bool
}

// SuperAdminGuard admits active platform super-admins only. Deactivation
// still wins: the identity fact survives on the record but grants nothing.
type SuperAdminGuard struct{}

func (SuperAdminGuard) Allows(_ Authorizer, user *TenantUser) bool {
	return user != nil && user.IsActive && user.IsSuperAdmin
}

// OwnerGuard admits the active tenant owner only.
type OwnerGuard struct{}

func (OwnerGuard) Allows(_ Authorizer, user *TenantUser) bool {
	return user != nil && user.IsActive && user.IsOwner
}

// ModuleGuard admits users whose effective set contains the module's gate
// permission. Action defaults to "view". Super-admins bypass the permission
// check: they are never lockable out through permission editing.
type ModuleGuard struct {
	Module string
	Action string
}

func (g ModuleGuard) Allows(a Authorizer, user *TenantUser) bool {
	if user == nil {
		return false
	}
	if user.IsActive && user.IsSuperAdmin {
		return true
	}
	action := g.Action
	if action == "" {
		action = catalog.ActionView
	}
	return a.HasPermission(*user, catalog.Token(g.Module, action))
}

// IdentityGuard admits any resolved tenant user. It is the weakest guard:
// it only rejects requests with no usable identity.
type IdentityGuard struct{}

func (IdentityGuard) Allows(_ Authorizer, user *TenantUser) bool {
	return user != nil
}

// ManageUsersGuard admits users holding the manage-users capability.
type ManageUsersGuard struct{}

func (ManageUsersGuard) Allows(a Authorizer, user *TenantUser) bool {
	return user != nil && a.CanManageUsers(*user)
}

// AnyGuard admits when at least one of its guards admits.
type AnyGuard []Guard

func (g AnyGuard) Allows(a Authorizer, user *TenantUser) bool {
	for _, inner := range g {
		if inner.Allows(a, user) {
			return true
		}
	}
	return false
}
