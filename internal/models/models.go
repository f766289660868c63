package models

import (
	"encoding/json"
	"time"
)

type Role struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"unique;not null"          json:"name"`
	Description string    `json:"description"`
	Permissions string    `gorm:"type:text;not null"       json:"-"`
	IsActive    bool      `gorm:"default:true;not null"    json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// PermissionList decodes the serialized permission set. A malformed or
// empty payload yields no permissions rather than an error.
func (r *Role) PermissionList() []string {
	var perms []string
	if err := json.Unmarshal([]byte(r.Permissions), &perms); err != nil {
		return nil
	}
	return perms
}

func (r *Role) SetPermissions(perms []string) {
	data, _ := json.Marshal(perms)
	r.Permissions = string(data)
}

type User struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"unique;not null"          json:"username"`
	Email        string     `gorm:"unique;not null"          json:"email"`
	PasswordHash string     `gorm:"not null"                 json:"-"`
	RoleID       uint       `gorm:"index;not null"           json:"role_id"`
	Role         Role       `json:"role"`
	IsActive     bool       `gorm:"default:true;not null"    json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
}

// RefreshToken stores the SHA-256 digest of an issued refresh token,
// never the token itself.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"                  json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"        json:"-"`
	UserID    uint      `gorm:"index;not null"              json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ExpiresAt time.Time `gorm:"not null"                    json:"expires_at"`
	IsRevoked bool      `gorm:"default:false;not null"      json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

type WeaponCategory struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"unique;not null"          json:"name"`
	Description string `json:"description"`
}

type Weapon struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"not null"                 json:"name"`
	CategoryID  uint           `gorm:"index"                    json:"category_id"`
	Category    WeaponCategory `json:"category"`
	Description string         `json:"description"`
}
