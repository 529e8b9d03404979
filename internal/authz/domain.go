// Package authz implements the tenant authorization core: the role and
// tenant-user snapshot store, effective-permission resolution, and the guard
// primitives that gate application surfaces.
package authz

import (
	"sort"
	"time"

	"github.com/meridian-bms/meridian/internal/catalog"
)

// Role is a named, reusable permission bundle assignable to tenant users.
// Name is the immutable machine key; DisplayName is the human label.
type Role struct {
	ID          string
	Name        string
	DisplayName string
	Description string
	Permissions []catalog.Permission
	IsActive    bool
}

// TenantUser is a member of the current tenant. It references exactly one
// role and may carry additional per-user permission grants. IsOwner and
// IsSuperAdmin are identity facts carried on the membership, not permission
// tokens.
type TenantUser struct {
	ID                string
	UserName          string
	Email             string
	FirstName         string
	LastName          string
	Avatar            string
	IsActive          bool
	JoinedAt          time.Time
	RoleID            string
	CustomPermissions []catalog.Permission
	IsOwner           bool
	IsSuperAdmin      bool
}

// PermissionSet is a derived, unordered set of granted permission tokens.
type PermissionSet map[catalog.Permission]struct{}

// NewPermissionSet builds a set from the given tokens.
func NewPermissionSet(tokens ...catalog.Permission) PermissionSet {
	set := make(PermissionSet, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Has reports membership of a single token.
func (s PermissionSet) Has(token catalog.Permission) bool {
	_, ok := s[token]
	return ok
}

// Add inserts a token into the set.
func (s PermissionSet) Add(token catalog.Permission) {
	s[token] = struct{}{}
}

// Slice returns the tokens in lexical order, for stable output.
func (s PermissionSet) Slice() []catalog.Permission {
	out := make([]catalog.Permission, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal reports set equality, order independent.
func (s PermissionSet) Equal(other PermissionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for t := range s {
		if !other.Has(t) {
			return false
		}
	}
	return true
}
