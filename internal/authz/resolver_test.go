package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-bms/meridian/internal/catalog"
)

func activeRole(id string, perms ...catalog.Permission) Role {
	return Role{
		ID:          id,
		Name:        "role_" + id,
		DisplayName: "Role " + id,
		Permissions: perms,
		IsActive:    true,
	}
}

func activeUser(id, roleID string, overrides ...catalog.Permission) TenantUser {
	return TenantUser{
		ID:                id,
		UserName:          "user_" + id,
		IsActive:          true,
		RoleID:            roleID,
		CustomPermissions: overrides,
	}
}

func snapshotWith(t *testing.T, roles []Role, users []TenantUser) *Snapshot {
	t.Helper()
	store := NewStore()
	return store.Swap(roles, users)
}

func TestResolveUnionOfRoleAndOverrides(t *testing.T) {
	role := activeRole("r1", "crm:view", "crm:create")
	user := activeUser("u1", "r1", "finance:view")

	effective := Resolve(user, role, true)

	assert.True(t, effective.Equal(NewPermissionSet("crm:view", "crm:create", "finance:view")))
	assert.False(t, effective.Has("crm:delete"))
}

func TestResolveInactiveUserIsEmpty(t *testing.T) {
	role := activeRole("r1", "crm:view", "crm:create")
	user := activeUser("u1", "r1", "finance:view")
	user.IsActive = false

	assert.Empty(t, Resolve(user, role, true))
}

func TestResolveInactiveRoleKeepsOverrides(t *testing.T) {
	role := activeRole("r1", "crm:view", "crm:create")
	role.IsActive = false
	user := activeUser("u1", "r1", "finance:view")

	effective := Resolve(user, role, true)

	assert.True(t, effective.Equal(NewPermissionSet("finance:view")))
}

func TestResolveMissingRoleKeepsOverrides(t *testing.T) {
	user := activeUser("u1", "deleted-role", "finance:view")

	effective := Resolve(user, Role{}, false)

	assert.True(t, effective.Equal(NewPermissionSet("finance:view")))
}

func TestResolveOverridesIndependentOfRole(t *testing.T) {
	// Every custom permission is granted no matter which role is assigned.
	overrides := []catalog.Permission{"quality:update", "reports:export"}
	for _, role := range []Role{
		activeRole("r1", "crm:view"),
		activeRole("r2"),
		{},
	} {
		user := activeUser("u1", role.ID, overrides...)
		effective := Resolve(user, role, role.ID != "")
		for _, token := range overrides {
			assert.True(t, effective.Has(token), "expected %s granted under role %q", token, role.ID)
		}
	}
}

func TestResolveSupersetOfActiveRole(t *testing.T) {
	role := activeRole("r1", "crm:view", "inventory:view", "inventory:update")
	user := activeUser("u1", "r1", "crm:view") // overlap is harmless

	effective := Resolve(user, role, true)

	for _, token := range role.Permissions {
		assert.True(t, effective.Has(token))
	}
}

func TestResolveSkipsUnknownTokens(t *testing.T) {
	role := activeRole("r1", "crm:view", "warehouse:teleport")
	user := activeUser("u1", "r1", "not-a-token")

	effective := Resolve(user, role, true)

	assert.True(t, effective.Equal(NewPermissionSet("crm:view")))
}

func TestAuthorizerResolveLooksUpRole(t *testing.T) {
	snap := snapshotWith(t,
		[]Role{activeRole("r1", "crm:view", "crm:create")},
		[]TenantUser{activeUser("u1", "r1", "finance:view")},
	)
	a := NewAuthorizer(snap)

	user, ok := snap.TenantUser("u1")
	require.True(t, ok)

	assert.True(t, a.Resolve(user).Equal(NewPermissionSet("crm:view", "crm:create", "finance:view")))
	assert.True(t, a.HasPermission(user, "crm:view"))
	assert.False(t, a.HasPermission(user, "crm:delete"))
}

func TestAuthorizerResolveIDUnknownUser(t *testing.T) {
	a := NewAuthorizer(snapshotWith(t, nil, nil))
	assert.Empty(t, a.ResolveID("ghost"))
}

func TestCanManageUsers(t *testing.T) {
	snap := snapshotWith(t,
		[]Role{
			activeRole("admin", "users:view", "users:update"),
			activeRole("viewer", "crm:view"),
		},
		nil,
	)
	a := NewAuthorizer(snap)

	admin := activeUser("u1", "admin")
	viewer := activeUser("u2", "viewer")
	owner := activeUser("u3", "viewer")
	owner.IsOwner = true

	assert.True(t, a.CanManageUsers(admin))
	assert.False(t, a.CanManageUsers(viewer))
	assert.True(t, a.CanManageUsers(owner), "owner manages users without the permission")
}

func TestDeactivationBeatsOwnership(t *testing.T) {
	a := NewAuthorizer(snapshotWith(t, nil, nil))

	owner := activeUser("u1", "none")
	owner.IsOwner = true
	owner.IsActive = false

	assert.False(t, a.CanManageUsers(owner), "deactivation is the kill-switch")
	// The identity facts themselves survive deactivation.
	assert.True(t, IsOwner(owner))
	assert.False(t, IsSuperAdmin(owner))
}

func TestPermissionSetSliceSorted(t *testing.T) {
	set := NewPermissionSet("users:view", "crm:view", "finance:view")
	assert.Equal(t, []catalog.Permission{"crm:view", "finance:view", "users:view"}, set.Slice())
}
