package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hunterdex/armory/internal/apperr"
	"github.com/hunterdex/armory/internal/models"
)

type TokenRepo struct {
	DB *gorm.DB
}

// Save persists the digest of an issued refresh token.
func (r *TokenRepo) Save(ctx context.Context, userID uint, digest string, expiresAt time.Time) error {
	row := models.RefreshToken{
		Token:     digest,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	return r.DB.WithContext(ctx).Create(&row).Error
}

func (r *TokenRepo) Find(ctx context.Context, digest string) (*models.RefreshToken, error) {
	var row models.RefreshToken
	err := r.DB.WithContext(ctx).Where("token = ?", digest).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// Revoke marks one refresh token unusable. Revocation only ever flips
// false to true; revoking an already revoked token is a no-op success.
func (r *TokenRepo) Revoke(ctx context.Context, digest string) error {
	result := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", digest).
		Update("is_revoked", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// RevokeAll revokes every live token of a user and reports how many were
// affected. Used for full logout and as a security response.
func (r *TokenRepo) RevokeAll(ctx context.Context, userID uint) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Update("is_revoked", true)
	return result.RowsAffected, result.Error
}

// CleanupExpired deletes rows past their expiry, revoked or not. Rows
// still inside their lifetime are never touched.
func (r *TokenRepo) CleanupExpired(ctx context.Context) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
