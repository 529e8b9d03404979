package authz

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoCachedSnapshot indicates the cache holds no snapshot.
var ErrNoCachedSnapshot = errors.New("authz: no cached snapshot")

// SnapshotCache persists the last confirmed snapshot in Redis so a restart
// can serve last-known-good state while the upstream API is unreachable.
// The cache is a boot fallback only; it never feeds live evaluation.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache constructs the cache.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

type cachedSnapshot struct {
	Roles    []Role       `json:"roles"`
	Users    []TenantUser `json:"users"`
	SavedAt  time.Time    `json:"saved_at"`
	Upstream uint64       `json:"version"`
}

const snapshotCacheKey = "authz:snapshot"

// Save stores the snapshot's contents.
func (c *SnapshotCache) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(cachedSnapshot{
		Roles:    snap.Roles(),
		Users:    snap.TenantUsers(),
		SavedAt:  time.Now().UTC(),
		Upstream: snap.Version(),
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotCacheKey, data, c.ttl).Err()
}

// Load returns the cached roles and users, or ErrNoCachedSnapshot.
func (c *SnapshotCache) Load(ctx context.Context) ([]Role, []TenantUser, error) {
	data, err := c.client.Get(ctx, snapshotCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil, ErrNoCachedSnapshot
		}
		return nil, nil, err
	}
	var cached cachedSnapshot
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil, err
	}
	return cached.Roles, cached.Users, nil
}
