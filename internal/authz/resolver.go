package authz

import "github.com/meridian-bms/meridian/internal/catalog"

// Resolve computes the effective permission set for a user given their role.
// roleFound is false when the role reference did not resolve; a missing or
// inactive role degrades to "no base permissions" rather than erroring.
//
// The result is a pure function of its inputs: a deactivated user resolves
// to the empty set regardless of role or overrides, an active user resolves
// to role permissions united with custom permissions. Overrides are strictly
// additive. Tokens outside the catalog are skipped so version skew between
// client and server degrades to a no-op grant instead of a crash.
func Resolve(user TenantUser, role Role, roleFound bool) PermissionSet {
	effective := make(PermissionSet)
	if !user.IsActive {
		return effective
	}
	if roleFound && role.IsActive {
		for _, token := range role.Permissions {
			if catalog.IsValid(token) {
				effective.Add(token)
			}
		}
	}
	for _, token := range user.CustomPermissions {
		if catalog.IsValid(token) {
			effective.Add(token)
		}
	}
	return effective
}

// Authorizer answers permission and capability queries against one snapshot.
// It is the explicit authorization context passed to guards; there is no
// ambient global state.
type Authorizer struct {
	snap *Snapshot
}

// NewAuthorizer binds an authorizer to a snapshot.
func NewAuthorizer(snap *Snapshot) Authorizer {
	return Authorizer{snap: snap}
}

// Version reports the snapshot version the authorizer evaluates against.
func (a Authorizer) Version() uint64 {
	return a.snap.Version()
}

// Resolve computes the effective permission set for the given user, looking
// up the user's role in the bound snapshot.
func (a Authorizer) Resolve(user TenantUser) PermissionSet {
	role, ok := a.snap.Role(user.RoleID)
	return Resolve(user, role, ok)
}

// ResolveID resolves by tenant user id. An unknown user resolves to the
// empty set.
func (a Authorizer) ResolveID(id string) PermissionSet {
	user, ok := a.snap.TenantUser(id)
	if !ok {
		return make(PermissionSet)
	}
	return a.Resolve(user)
}

// HasPermission reports whether the user's effective set contains token.
func (a Authorizer) HasPermission(user TenantUser, token catalog.Permission) bool {
	return a.Resolve(user).Has(token)
}

// CanManageUsers reports whether the user may administer tenant membership.
// Owners can always manage users; deactivation still wins over ownership
// because deactivation is the unconditional kill-switch.
func (a Authorizer) CanManageUsers(user TenantUser) bool {
	if !user.IsActive {
		return false
	}
	if user.IsOwner || user.IsSuperAdmin {
		return true
	}
	return a.HasPermission(user, catalog.Token("users", catalog.ActionUpdate))
}

// IsOwner reports the owner identity fact. It is independent of roles,
// overrides and the active flag: an owner cannot be edited out of ownership.
func IsOwner(user TenantUser) bool {
	return user.IsOwner
}

// IsSuperAdmin reports the platform super-admin identity fact.
func IsSuperAdmin(user TenantUser) bool {
	return user.IsSuperAdmin
}
