package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hunterdex/armory/internal/apperr"
	"github.com/hunterdex/armory/internal/models"
)

type UserRepo struct {
	DB *gorm.DB
}

// FindByUsernameOrEmail matches either column exactly, case-sensitive.
func (r *UserRepo) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Role").
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Role").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Preload("Role").Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).
			Where("username = ? OR email = ?", user.Username, user.Email).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.ErrDuplicateIdentity
		}
		return tx.Create(user).Error
	})
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, id uint) error {
	now := time.Now()
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login", &now).Error
}

// SetActive refuses to deactivate the system's last active admin.
func (r *UserRepo) SetActive(ctx context.Context, id uint, active bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := getUserTx(tx, id)
		if err != nil {
			return err
		}
		if !active && isAdminRole(&user.Role) {
			n, err := countAdmins(tx)
			if err != nil {
				return err
			}
			if n <= 1 {
				return apperr.ErrLastAdmin
			}
		}
		return tx.Model(&models.User{}).Where("id = ?", id).Update("is_active", active).Error
	})
}

// ChangeRole runs the admin count and the role update in one transaction
// so concurrent requests cannot demote the last admin.
func (r *UserRepo) ChangeRole(ctx context.Context, userID, roleID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := getUserTx(tx, userID)
		if err != nil {
			return err
		}
		var newRole models.Role
		if err := tx.First(&newRole, roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return err
		}
		if isAdminRole(&user.Role) && !isAdminRole(&newRole) {
			n, err := countAdmins(tx)
			if err != nil {
				return err
			}
			if n <= 1 {
				return apperr.ErrLastAdmin
			}
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("role_id", roleID).Error
	})
}

func (r *UserRepo) CountAdmins(ctx context.Context) (int64, error) {
	return countAdmins(r.DB.WithContext(ctx))
}

func getUserTx(tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := tx.Preload("Role").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// countAdmins counts active users whose role carries the sentinel admin
// permission. Permissions are stored as a JSON array, so a LIKE on the
// quoted literal works on both postgres and sqlite.
func countAdmins(tx *gorm.DB) (int64, error) {
	var count int64
	err := tx.Model(&models.User{}).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("users.is_active = ?", true).
		Where(`roles.permissions LIKE ?`, `%"admin"%`).
		Count(&count).Error
	return count, err
}

func isAdminRole(role *models.Role) bool {
	for _, p := range role.PermissionList() {
		if p == "admin" {
			return true
		}
	}
	return false
}
