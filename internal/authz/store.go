package authz

import (
	"sort"
	"sync"
)

// Snapshot is one immutable, server-confirmed projection of the tenant's
// roles and users. Guards and resolvers always evaluate against a single
// snapshot, so a request never observes a half-applied refresh.
type Snapshot struct {
	roles   map[string]Role
	users   map[string]TenantUser
	version uint64
}

// Version identifies the snapshot; it increases with every swap.
func (s *Snapshot) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.version
}

// Role looks up a role by id.
func (s *Snapshot) Role(id string) (Role, bool) {
	if s == nil {
		return Role{}, false
	}
	role, ok := s.roles[id]
	return role, ok
}

// TenantUser looks up a tenant user by id.
func (s *Snapshot) TenantUser(id string) (TenantUser, bool) {
	if s == nil {
		return TenantUser{}, false
	}
	user, ok := s.users[id]
	return user, ok
}

// Roles returns all roles ordered by machine name.
func (s *Snapshot) Roles() []Role {
	if s == nil {
		return nil
	}
	out := make([]Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TenantUsers returns all tenant users ordered by user name.
func (s *Snapshot) TenantUsers() []TenantUser {
	if s == nil {
		return nil
	}
	out := make([]TenantUser, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out
}

// Store holds the latest confirmed snapshot. Snapshots are replaced
// wholesale; there is no partial patching across a network call boundary.
type Store struct {
	mu        sync.RWMutex
	snap      *Snapshot
	listeners []func(*Snapshot)
}

// NewStore constructs a store with an empty snapshot at version 0.
func NewStore() *Store {
	return &Store{snap: &Snapshot{
		roles: map[string]Role{},
		users: map[string]TenantUser{},
	}}
}

// Snapshot returns the current snapshot. Callers hold it for the duration of
// one evaluation cycle and must not retain it across refreshes.
func (st *Store) Snapshot() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snap
}

// Version returns the current snapshot version.
func (st *Store) Version() uint64 {
	return st.Snapshot().Version()
}

// Swap replaces the snapshot with freshly fetched server state and notifies
// subscribers. Listeners run synchronously so dependent caches are
// invalidated before the swap is observable as "done".
func (st *Store) Swap(roles []Role, users []TenantUser) *Snapshot {
	roleIdx := make(map[string]Role, len(roles))
	for _, role := range roles {
		roleIdx[role.ID] = role
	}
	userIdx := make(map[string]TenantUser, len(users))
	for _, user := range users {
		userIdx[user.ID] = user
	}

	st.mu.Lock()
	next := &Snapshot{roles: roleIdx, users: userIdx, version: st.snap.version + 1}
	st.snap = next
	listeners := st.listeners
	st.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Subscribe registers a listener invoked after every swap.
func (st *Store) Subscribe(fn func(*Snapshot)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.listeners = append(st.listeners, fn)
}
