package repo

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hunterdex/armory/internal/authz"
	"github.com/hunterdex/armory/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.RefreshToken{},
		&models.WeaponCategory{},
		&models.Weapon{},
	)
	require.NoError(t, err)
	return db
}

func seedRoles(t *testing.T, db *gorm.DB) *RoleRepo {
	t.Helper()
	roles := &RoleRepo{DB: db}
	require.NoError(t, roles.EnsureDefaults(context.Background()))
	return roles
}

func mustRole(t *testing.T, roles *RoleRepo, name string) *models.Role {
	t.Helper()
	role, err := roles.GetByName(context.Background(), name)
	require.NoError(t, err)
	return role
}

func seedUser(t *testing.T, db *gorm.DB, username, email string, roleID uint, active bool) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: "x",
		RoleID:       roleID,
		IsActive:     active,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func adminAndUserRoles(t *testing.T, db *gorm.DB) (*RoleRepo, *models.Role, *models.Role) {
	t.Helper()
	roles := seedRoles(t, db)
	return roles, mustRole(t, roles, authz.RoleAdmin), mustRole(t, roles, authz.RoleUser)
}
