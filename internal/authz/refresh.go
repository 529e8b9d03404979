package authz

import (
	"context"

	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Source is the upstream contract the refresher pulls confirmed state from.
type Source interface {
	ListRoles(ctx context.Context) ([]Role, error)
	ListTenantUsers(ctx context.Context) ([]TenantUser, error)
}

// Refresher replaces the local snapshot with fresh upstream state. A refresh
// is all-or-nothing: on any fetch failure the store keeps the last confirmed
// snapshot.
type Refresher struct {
	source Source
	store  *Store
	logger *slog.Logger
}

// NewRefresher constructs a Refresher.
func NewRefresher(source Source, store *Store, logger *slog.Logger) *Refresher {
	return &Refresher{source: source, store: store, logger: logger}
}

// Refresh fetches roles and tenant users concurrently and swaps the store.
// If the caller's context is done by the time results arrive, the result is
// discarded and the store left untouched (update-after-unmount defense).
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	var (
		roles []Role
		users []TenantUser
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roles, err = r.source.ListRoles(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = r.source.ListTenantUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		if r.logger != nil {
			r.logger.Debug("snapshot refresh discarded", slog.Any("reason", err))
		}
		return nil, err
	}
	snap := r.store.Swap(roles, users)
	if r.logger != nil {
		r.logger.Info("snapshot refreshed",
			slog.Uint64("version", snap.Version()),
			slog.Int("roles", len(roles)),
			slog.Int("tenant_users", len(users)))
	}
	return snap, nil
}
