package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleGuardAllowsWithViewPermission(t *testing.T) {
	snap := snapshotWith(t, []Role{activeRole("r1", "inventory:view")}, nil)
	a := NewAuthorizer(snap)
	user := activeUser("u1", "r1")

	assert.True(t, ModuleGuard{Module: "inventory"}.Allows(a, &user))
	assert.False(t, ModuleGuard{Module: "finance"}.Allows(a, &user))
}

func TestModuleGuardCustomAction(t *testing.T) {
	snap := snapshotWith(t, []Role{activeRole("r1", "reports:view")}, nil)
	a := NewAuthorizer(snap)
	user := activeUser("u1", "r1")

	assert.True(t, ModuleGuard{Module: "reports"}.Allows(a, &user))
	assert.False(t, ModuleGuard{Module: "reports", Action: "export"}.Allows(a, &user))
}

func TestModuleGuardFailClosed(t *testing.T) {
	a := NewAuthorizer(snapshotWith(t, nil, nil))

	// Nil user (not logged in) denies.
	assert.False(t, ModuleGuard{Module: "inventory"}.Allows(a, nil))

	// Malformed user with a dangling role reference denies without panicking.
	malformed := activeUser("u1", "")
	assert.False(t, ModuleGuard{Module: "inventory"}.Allows(a, &malformed))
}

func TestModuleGuardSuperAdminBypass(t *testing.T) {
	a := NewAuthorizer(snapshotWith(t, nil, nil))
	admin := activeUser("u1", "none")
	admin.IsSuperAdmin = true

	assert.True(t, ModuleGuard{Module: "inventory"}.Allows(a, &admin))
}

func TestDeactivationWinsOverPrivilegedIdentity(t *testing.T) {
	a := NewAuthorizer(snapshotWith(t, nil, nil))
	admin := activeUser("u1", "none")
	admin.IsSuperAdmin = true
	admin.IsOwner = true
	admin.IsActive = false

	assert.False(t, ModuleGuard{Module: "inventory"}.Allows(a, &admin))
	assert.False(t, SuperAdminGuard{}.Allows(a, &admin))
	assert.False(t, OwnerGuard{}.Allows(a, &admin))
}

func TestOwnerGuard(t *testing.T) {
	a := NewAuthorizer(snapshotWith(t, nil, nil))
	owner := activeUser("u1", "none")
	owner.IsOwner = true
	regular := activeUser("u2", "none")

	assert.True(t, OwnerGuard{}.Allows(a, &owner))
	assert.False(t, OwnerGuard{}.Allows(a, &regular))
	assert.False(t, OwnerGuard{}.Allows(a, nil))
}

func TestSuperAdminGuard(t *testing.T) {
	a := NewAuthorizer(snapshotWith(t, nil, nil))
	admin := activeUser("u1", "none")
	admin.IsSuperAdmin = true
	owner := activeUser("u2", "none")
	owner.IsOwner = true

	assert.True(t, SuperAdminGuard{}.Allows(a, &admin))
	assert.False(t, SuperAdminGuard{}.Allows(a, &owner), "ownership does not imply platform admin")
	assert.False(t, SuperAdminGuard{}.Allows(a, nil))
}

func TestIdentityGuard(t *testing.T) {
	a := NewAuthorizer(snapshotWith(t, nil, nil))
	user := activeUser("u1", "none")

	assert.True(t, IdentityGuard{}.Allows(a, &user))
	assert.False(t, IdentityGuard{}.Allows(a, nil))
}

func TestManageUsersGuard(t *testing.T) {
	snap := snapshotWith(t, []Role{activeRole("admin", "users:update")}, nil)
	a := NewAuthorizer(snap)

	admin := activeUser("u1", "admin")
	nobody := activeUser("u2", "missing")

	assert.True(t, ManageUsersGuard{}.Allows(a, &admin))
	assert.False(t, ManageUsersGuard{}.Allows(a, &nobody))
	assert.False(t, ManageUsersGuard{}.Allows(a, nil))
}

func TestAnyGuard(t *testing.T) {
	a := NewAuthorizer(snapshotWith(t, nil, nil))
	owner := activeUser("u1", "none")
	owner.IsOwner = true
	regular := activeUser("u2", "none")

	combined := AnyGuard{OwnerGuard{}, SuperAdminGuard{}}
	assert.True(t, combined.Allows(a, &owner))
	assert.False(t, combined.Allows(a, &regular))
	assert.False(t, AnyGuard{}.Allows(a, &owner), "empty guard list denies")
}
