package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	roles    []Role
	users    []TenantUser
	rolesErr error
	usersErr error
}

func (s *stubSource) ListRoles(ctx context.Context) ([]Role, error) {
	return s.roles, s.rolesErr
}

func (s *stubSource) ListTenantUsers(ctx context.Context) ([]TenantUser, error) {
	return s.users, s.usersErr
}

func TestRefreshSwapsStore(t *testing.T) {
	store := NewStore()
	src := &stubSource{
		roles: []Role{activeRole("r1", "crm:view")},
		users: []TenantUser{activeUser("u1", "r1")},
	}
	refresher := NewRefresher(src, store, nil)

	snap, err := refresher.Refresh(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 1, snap.Version())
	assert.Same(t, snap, store.Snapshot())
	_, ok := snap.Role("r1")
	assert.True(t, ok)
	_, ok = snap.TenantUser("u1")
	assert.True(t, ok)
}

func TestRefreshFailureKeepsLastSnapshot(t *testing.T) {
	store := NewStore()
	store.Swap([]Role{activeRole("r1", "crm:view")}, nil)

	src := &stubSource{usersErr: errors.New("upstream down")}
	refresher := NewRefresher(src, store, nil)

	_, err := refresher.Refresh(context.Background())
	require.Error(t, err)

	snap := store.Snapshot()
	assert.EqualValues(t, 1, snap.Version(), "failed refresh must not advance the store")
	_, ok := snap.Role("r1")
	assert.True(t, ok)
}

func TestRefreshDiscardsResultWhenContextDone(t *testing.T) {
	store := NewStore()
	src := &stubSource{roles: []Role{activeRole("r1", "crm:view")}}
	refresher := NewRefresher(src, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := refresher.Refresh(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, store.Version(), "canceled refresh must not land")
}
