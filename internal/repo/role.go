package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hunterdex/armory/internal/apperr"
	"github.com/hunterdex/armory/internal/authz"
	"github.com/hunterdex/armory/internal/models"
)

type RoleRepo struct {
	DB *gorm.DB
}

func (r *RoleRepo) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.DB.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepo) GetByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	err := r.DB.WithContext(ctx).First(&role, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepo) Create(ctx context.Context, role *models.Role) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Role{}).Where("name = ?", role.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.ErrDuplicateRole
		}
		return tx.Create(role).Error
	})
}

func (r *RoleRepo) ListActive(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.DB.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// EnsureDefaults seeds the shipped role set. Existing rows are left
// untouched, so the call is safe to repeat at every startup.
func (r *RoleRepo) EnsureDefaults(ctx context.Context) error {
	defaults := []struct {
		name        string
		description string
		permissions []string
	}{
		{
			name:        authz.RoleAdmin,
			description: "Full access to every resource",
			permissions: []string{authz.PermAdmin},
		},
		{
			name:        authz.RoleUser,
			description: "Read-only access to the catalogue",
			permissions: []string{authz.PermWeaponRead, authz.PermCategoryRead},
		},
		{
			name:        authz.RoleModerator,
			description: "Can create and update catalogue entries, but not delete",
			permissions: []string{
				authz.PermWeaponRead, authz.PermWeaponCreate, authz.PermWeaponUpdate,
				authz.PermCategoryRead, authz.PermCategoryCreate, authz.PermCategoryUpdate,
			},
		},
	}

	for _, d := range defaults {
		var existing models.Role
		err := r.DB.WithContext(ctx).Where("name = ?", d.name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		role := models.Role{Name: d.name, Description: d.description, IsActive: true}
		role.SetPermissions(d.permissions)
		if err := r.DB.WithContext(ctx).Create(&role).Error; err != nil {
			return err
		}
	}
	return nil
}
