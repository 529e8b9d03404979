package users

import (
	"context"

	"log/slog"

	"github.com/meridian-bms/meridian/internal/authz"
	"github.com/meridian-bms/meridian/internal/catalog"
	"github.com/meridian-bms/meridian/internal/shared"
	"github.com/meridian-bms/meridian/internal/upstream"
)

// Service handles tenant user management. Reads come from the last
// confirmed snapshot; mutations go to the upstream API and trigger a
// wholesale snapshot refresh on success.
type Service struct {
	client    upstream.Client
	store     *authz.Store
	refresher *authz.Refresher
	logger    *slog.Logger
}

// NewService builds Service instance.
func NewService(client upstream.Client, store *authz.Store, refresher *authz.Refresher, logger *slog.Logger) *Service {
	return &Service{client: client, store: store, refresher: refresher, logger: logger}
}

// List returns all tenant users from the last confirmed snapshot.
func (s *Service) List(ctx context.Context) []authz.TenantUser {
	return s.store.Snapshot().TenantUsers()
}

// Get returns a tenant user from the last confirmed snapshot.
func (s *Service) Get(ctx context.Context, id string) (authz.TenantUser, error) {
	user, ok := s.store.Snapshot().TenantUser(id)
	if !ok {
		return authz.TenantUser{}, shared.ErrNotFound
	}
	return user, nil
}

// Update validates and submits tenant user changes. A role reassignment is
// checked against locally known roles before any network call is made.
func (s *Service) Update(ctx context.Context, id string, input UpdateTenantUserInput) (authz.TenantUser, error) {
	snap := s.store.Snapshot()
	if _, ok := snap.TenantUser(id); !ok {
		return authz.TenantUser{}, shared.ErrNotFound
	}
	if input.RoleID != nil {
		if _, ok := snap.Role(*input.RoleID); !ok {
			return authz.TenantUser{}, shared.NewValidationError("role_id", "unknown role")
		}
	}
	if input.CustomPermissions != nil {
		for _, token := range *input.CustomPermissions {
			if !catalog.IsValid(token) {
				return authz.TenantUser{}, shared.NewValidationError("custom_permissions", "unknown permission "+string(token))
			}
		}
	}

	user, err := s.client.UpdateTenantUser(ctx, id, upstream.UpdateTenantUserData{
		RoleID:            input.RoleID,
		CustomPermissions: input.CustomPermissions,
		IsActive:          input.IsActive,
	})
	if err != nil {
		return authz.TenantUser{}, err
	}
	s.refresh(ctx, "update tenant user")
	return user, nil
}

// Remove removes the user from the tenant. Terminal: unlike deactivation
// the user disappears from the directory after the refresh.
func (s *Service) Remove(ctx context.Context, id string) error {
	if _, ok := s.store.Snapshot().TenantUser(id); !ok {
		return shared.ErrNotFound
	}
	if err := s.client.RemoveTenantUser(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx, "remove tenant user")
	return nil
}

func (s *Service) refresh(ctx context.Context, op string) {
	if _, err := s.refresher.Refresh(ctx); err != nil {
		if s.logger != nil {
			s.logger.Warn("snapshot refresh after mutation failed",
				slog.String("operation", op), slog.Any("error", err))
		}
	}
}
