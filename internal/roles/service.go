package roles

import (
	"context"
	"strings"

	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-bms/meridian/internal/authz"
	"github.com/meridian-bms/meridian/internal/catalog"
	"github.com/meridian-bms/meridian/internal/shared"
	"github.com/meridian-bms/meridian/internal/upstream"
)

// Service handles role management operations. All validation happens locally
// before any network call; on upstream success the local snapshot is
// refreshed wholesale so guards never evaluate a half-applied state.
type Service struct {
	client    upstream.Client
	store     *authz.Store
	refresher *authz.Refresher
	logger    *slog.Logger
	validate  *validator.Validate
}

// NewService builds Service instance.
func NewService(client upstream.Client, store *authz.Store, refresher *authz.Refresher, logger *slog.Logger) *Service {
	return &Service{
		client:    client,
		store:     store,
		refresher: refresher,
		logger:    logger,
		validate:  validator.New(),
	}
}

// List returns all roles from the last confirmed snapshot.
func (s *Service) List(ctx context.Context) []authz.Role {
	return s.store.Snapshot().Roles()
}

// Get returns a role from the last confirmed snapshot.
func (s *Service) Get(ctx context.Context, id string) (authz.Role, error) {
	role, ok := s.store.Snapshot().Role(id)
	if !ok {
		return authz.Role{}, shared.ErrNotFound
	}
	return role, nil
}

// Create validates and submits a new role, then refreshes the snapshot.
func (s *Service) Create(ctx context.Context, input CreateRoleInput) (authz.Role, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if err := s.validateCreate(input); err != nil {
		return authz.Role{}, err
	}

	role, err := s.client.CreateRole(ctx, upstream.CreateRoleData{
		Name:        input.Name,
		DisplayName: input.DisplayName,
		Description: strings.TrimSpace(input.Description),
		Permissions: input.Permissions,
		IsActive:    input.IsActive,
	})
	if err != nil {
		return authz.Role{}, err
	}
	s.refresh(ctx, "create role")
	return role, nil
}

// Update validates and submits role changes, then refreshes the snapshot.
// The machine name cannot change; UpdateRoleInput has no field for it.
func (s *Service) Update(ctx context.Context, id string, input UpdateRoleInput) (authz.Role, error) {
	if _, ok := s.store.Snapshot().Role(id); !ok {
		return authz.Role{}, shared.ErrNotFound
	}
	if err := s.validateUpdate(input); err != nil {
		return authz.Role{}, err
	}

	role, err := s.client.UpdateRole(ctx, id, upstream.UpdateRoleData{
		DisplayName: input.DisplayName,
		Description: input.Description,
		Permissions: input.Permissions,
		IsActive:    input.IsActive,
	})
	if err != nil {
		return authz.Role{}, err
	}
	s.refresh(ctx, "update role")
	return role, nil
}

func (s *Service) validateCreate(input CreateRoleInput) error {
	if err := s.validate.Struct(input); err != nil {
		verr := &shared.ValidationError{Fields: map[string]string{}}
		for _, fieldErr := range err.(validator.ValidationErrors) {
			verr.Add(strings.ToLower(fieldErr.Field()), "is required")
		}
		return verr
	}
	if err := checkCatalog(input.Permissions); err != nil {
		return err
	}
	return nil
}

func (s *Service) validateUpdate(input UpdateRoleInput) error {
	if input.DisplayName != nil && strings.TrimSpace(*input.DisplayName) == "" {
		return shared.NewValidationError("display_name", "is required")
	}
	if input.Permissions != nil {
		if err := checkCatalog(*input.Permissions); err != nil {
			return err
		}
	}
	return nil
}

func checkCatalog(perms []catalog.Permission) error {
	for _, token := range perms {
		if !catalog.IsValid(token) {
			return shared.NewValidationError("permissions", "unknown permission "+string(token))
		}
	}
	return nil
}

// refresh pulls confirmed state after a successful mutation. A failed
// refresh leaves the last confirmed snapshot in place; the periodic
// reconcile job converges it.
func (s *Service) refresh(ctx context.Context, op string) {
	if _, err := s.refresher.Refresh(ctx); err != nil {
		if s.logger != nil {
			s.logger.Warn("snapshot refresh after mutation failed",
				slog.String("operation", op), slog.Any("error", err))
		}
	}
}
