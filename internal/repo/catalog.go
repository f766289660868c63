package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hunterdex/armory/internal/apperr"
	"github.com/hunterdex/armory/internal/models"
)

type CategoryRepo struct {
	DB *gorm.DB
}

func (r *CategoryRepo) List(ctx context.Context) ([]models.WeaponCategory, error) {
	var categories []models.WeaponCategory
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id uint) (*models.WeaponCategory, error) {
	var category models.WeaponCategory
	if err := r.DB.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepo) Create(ctx context.Context, category *models.WeaponCategory) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.WeaponCategory{}).Where("name = ?", category.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Validationf("name", "category %q already exists", category.Name)
		}
		return tx.Create(category).Error
	})
}

func (r *CategoryRepo) Update(ctx context.Context, category *models.WeaponCategory) error {
	return r.DB.WithContext(ctx).Save(category).Error
}

func (r *CategoryRepo) Delete(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(&models.WeaponCategory{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

type WeaponRepo struct {
	DB *gorm.DB
}

func (r *WeaponRepo) List(ctx context.Context, offset, limit int) ([]models.Weapon, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Weapon{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var weapons []models.Weapon
	err := r.DB.WithContext(ctx).Preload("Category").
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&weapons).Error
	if err != nil {
		return nil, 0, err
	}
	return weapons, total, nil
}

func (r *WeaponRepo) GetByID(ctx context.Context, id uint) (*models.Weapon, error) {
	var weapon models.Weapon
	if err := r.DB.WithContext(ctx).Preload("Category").First(&weapon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &weapon, nil
}

func (r *WeaponRepo) Create(ctx context.Context, weapon *models.Weapon) error {
	return r.DB.WithContext(ctx).Create(weapon).Error
}

func (r *WeaponRepo) Update(ctx context.Context, weapon *models.Weapon) error {
	return r.DB.WithContext(ctx).Save(weapon).Error
}

func (r *WeaponRepo) Delete(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(&models.Weapon{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
