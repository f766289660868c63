package service

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/hunterdex/armory/internal/events"
	"github.com/hunterdex/armory/internal/logging"
	"github.com/hunterdex/armory/internal/models"
	"github.com/hunterdex/armory/internal/repo"
	"github.com/hunterdex/armory/internal/service/search"
)

// WeaponService is the catalogue collaborator: CRUD over weapons and
// categories, with ES indexing and event publishing on mutations. A nil
// ES client disables indexing and search.
type WeaponService struct {
	Weapons    *repo.WeaponRepo
	Categories *repo.CategoryRepo
	ES         *elasticsearch.Client
	Index      string
	Producer   *events.Producer
}

func (s *WeaponService) ListCategories(ctx context.Context) ([]models.WeaponCategory, error) {
	return s.Categories.List(ctx)
}

func (s *WeaponService) GetCategory(ctx context.Context, id uint) (*models.WeaponCategory, error) {
	return s.Categories.GetByID(ctx, id)
}

func (s *WeaponService) CreateCategory(ctx context.Context, category *models.WeaponCategory) error {
	if err := s.Categories.Create(ctx, category); err != nil {
		return err
	}
	s.publish(ctx, map[string]any{"type": "category_created", "id": category.ID, "name": category.Name})
	return nil
}

func (s *WeaponService) UpdateCategory(ctx context.Context, id uint, name, description string) (*models.WeaponCategory, error) {
	category, err := s.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		category.Name = name
	}
	if description != "" {
		category.Description = description
	}
	if err := s.Categories.Update(ctx, category); err != nil {
		return nil, err
	}
	s.publish(ctx, map[string]any{"type": "category_updated", "id": category.ID, "name": category.Name})
	return category, nil
}

func (s *WeaponService) DeleteCategory(ctx context.Context, id uint) error {
	if err := s.Categories.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, map[string]any{"type": "category_deleted", "id": id})
	return nil
}

func (s *WeaponService) ListWeapons(ctx context.Context, offset, limit int) ([]models.Weapon, int64, error) {
	return s.Weapons.List(ctx, offset, limit)
}

func (s *WeaponService) GetWeapon(ctx context.Context, id uint) (*models.Weapon, error) {
	return s.Weapons.GetByID(ctx, id)
}

func (s *WeaponService) CreateWeapon(ctx context.Context, weapon *models.Weapon) error {
	if _, err := s.Categories.GetByID(ctx, weapon.CategoryID); err != nil {
		return err
	}
	if err := s.Weapons.Create(ctx, weapon); err != nil {
		return err
	}
	s.index(ctx, weapon)
	s.publish(ctx, map[string]any{"type": "weapon_created", "id": weapon.ID, "name": weapon.Name})
	return nil
}

func (s *WeaponService) UpdateWeapon(ctx context.Context, id uint, name, description string, categoryID uint) (*models.Weapon, error) {
	weapon, err := s.Weapons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		weapon.Name = name
	}
	if description != "" {
		weapon.Description = description
	}
	if categoryID != 0 {
		if _, err := s.Categories.GetByID(ctx, categoryID); err != nil {
			return nil, err
		}
		weapon.CategoryID = categoryID
	}
	if err := s.Weapons.Update(ctx, weapon); err != nil {
		return nil, err
	}
	s.index(ctx, weapon)
	s.publish(ctx, map[string]any{"type": "weapon_updated", "id": weapon.ID, "name": weapon.Name})
	return weapon, nil
}

func (s *WeaponService) DeleteWeapon(ctx context.Context, id uint) error {
	if err := s.Weapons.Delete(ctx, id); err != nil {
		return err
	}
	if s.ES != nil {
		if err := search.Delete(ctx, s.ES, s.Index, id); err != nil {
			logging.FromContext(ctx).Error("weapon_deindex_failed", "id", id, "error", err)
		}
	}
	s.publish(ctx, map[string]any{"type": "weapon_deleted", "id": id})
	return nil
}

func (s *WeaponService) SearchWeapons(ctx context.Context, query string, from, size int) (int64, []models.Weapon, error) {
	return search.Search(ctx, s.ES, s.Index, query, from, size)
}

// index failures are logged, never surfaced; the store stays the source
// of truth and the document catches up on the next write.
func (s *WeaponService) index(ctx context.Context, weapon *models.Weapon) {
	if s.ES == nil {
		return
	}
	if err := search.Index(ctx, s.ES, s.Index, weapon); err != nil {
		logging.FromContext(ctx).Error("weapon_index_failed", "id", weapon.ID, "error", err)
	}
}

func (s *WeaponService) publish(ctx context.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(ctx, events.TopicArmoryEvents, fmt.Sprint(event["id"]), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", events.TopicArmoryEvents, "error", err)
	}
}
