package service

import (
	"context"

	"github.com/hunterdex/armory/internal/apperr"
	"github.com/hunterdex/armory/internal/logging"
	"github.com/hunterdex/armory/internal/models"
	"github.com/hunterdex/armory/internal/repo"
)

type RoleService struct {
	Roles *repo.RoleRepo
}

func (s *RoleService) EnsureDefaults(ctx context.Context) error {
	return s.Roles.EnsureDefaults(ctx)
}

func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	return s.Roles.ListActive(ctx)
}

// Create registers a new role with an arbitrary permission set. The
// shipped default roles cannot be redefined this way; a name clash fails.
func (s *RoleService) Create(ctx context.Context, name, description string, permissions []string) (*models.Role, error) {
	l := logging.FromContext(ctx).With("svc", "roles.create")

	if name == "" {
		return nil, apperr.Validationf("name", "role name is required")
	}
	if len(permissions) == 0 {
		return nil, apperr.Validationf("permissions", "at least one permission is required")
	}

	role := &models.Role{Name: name, Description: description, IsActive: true}
	role.SetPermissions(permissions)
	if err := s.Roles.Create(ctx, role); err != nil {
		l.Warn("role_create_failed", "name", name, "error", err)
		return nil, err
	}

	l.Info("role_created", "name", name)
	return role, nil
}
