package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hunterdex/armory/internal/apperr"
	"github.com/hunterdex/armory/internal/events"
	"github.com/hunterdex/armory/internal/logging"
	"github.com/hunterdex/armory/internal/models"
	"github.com/hunterdex/armory/internal/repo"
)

// UserService covers the admin-facing user management surface.
type UserService struct {
	Users    *repo.UserRepo
	Roles    *repo.RoleRepo
	Producer *events.Producer
}

func (s *UserService) Profile(ctx context.Context, id uint) (*models.User, error) {
	return s.Users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.Users.List(ctx)
}

// ChangeRole moves a user onto the named role. The last-admin guard runs
// inside the store transaction. The user's outstanding access tokens keep
// their old snapshot until they expire or are refreshed.
func (s *UserService) ChangeRole(ctx context.Context, userID uint, roleName string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.change_role", "user_id", userID)

	role, err := s.Roles.GetByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.Warn("change_role_failed", "reason", "unknown role", "role", roleName)
		}
		return nil, err
	}

	if err := s.Users.ChangeRole(ctx, userID, role.ID); err != nil {
		if errors.Is(err, apperr.ErrLastAdmin) {
			l.Warn("change_role_failed", "reason", "last admin protection")
		}
		return nil, err
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":    "role_changed",
		"user_id": userID,
		"role":    roleName,
	})

	l.Info("role_changed", "role", roleName)
	return user, nil
}

func (s *UserService) SetActive(ctx context.Context, userID uint, active bool) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.set_active", "user_id", userID)

	if err := s.Users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, apperr.ErrLastAdmin) {
			l.Warn("set_active_failed", "reason", "last admin protection")
		}
		return nil, err
	}

	l.Info("active_changed", "is_active", active)
	return s.Users.GetByID(ctx, userID)
}

func (s *UserService) publish(ctx context.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(ctx, events.TopicHunterEvents, fmt.Sprint(event["user_id"]), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", events.TopicHunterEvents, "error", err)
	}
}
