package authz

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	client := newTestRedis(t)
	cache := NewSnapshotCache(client, time.Hour)

	snap := snapshotWith(t,
		[]Role{activeRole("r1", "crm:view")},
		[]TenantUser{activeUser("u1", "r1", "finance:view")},
	)

	ctx := context.Background()
	require.NoError(t, cache.Save(ctx, snap))

	roles, users, err := cache.Load(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.Len(t, users, 1)
	assert.Equal(t, "r1", roles[0].ID)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, NewPermissionSet("finance:view"), NewPermissionSet(users[0].CustomPermissions...))
}

func TestSnapshotCacheLoadEmpty(t *testing.T) {
	client := newTestRedis(t)
	cache := NewSnapshotCache(client, time.Hour)

	_, _, err := cache.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoCachedSnapshot)
}
