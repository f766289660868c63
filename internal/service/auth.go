package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hunterdex/armory/internal/apperr"
	"github.com/hunterdex/armory/internal/authz"
	"github.com/hunterdex/armory/internal/events"
	"github.com/hunterdex/armory/internal/hash"
	"github.com/hunterdex/armory/internal/logging"
	"github.com/hunterdex/armory/internal/models"
	"github.com/hunterdex/armory/internal/repo"
	"github.com/hunterdex/armory/internal/tokens"
)

// AuthService owns the token lifecycle: credential checks, access/refresh
// issuance, refresh validation and revocation. It holds explicit
// references to its stores and signing keys; there is no package state.
type AuthService struct {
	Users  *repo.UserRepo
	Roles  *repo.RoleRepo
	Tokens *repo.TokenRepo

	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	Producer *events.Producer
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         *models.User
}

type RefreshResult struct {
	AccessToken string
	AccessExp   time.Time
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	// Self-registration always lands on the default role; admins are
	// promoted through the role-change endpoint.
	role, err := s.Roles.GetByName(ctx, authz.RoleUser)
	if err != nil {
		l.Error("register_failed", "reason", "default role missing", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		RoleID:       role.ID,
		IsActive:     true,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrDuplicateIdentity) {
			l.Warn("register_failed", "reason", "duplicate identity")
			return nil, err
		}
		l.Error("register_failed", "reason", "db_error", "error", err)
		return nil, err
	}
	user.Role = *role

	s.publish(ctx, events.TopicHunterEvents, user.ID, map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	l.Info("register_success", "user_id", user.ID)
	return user, nil
}

// Login authenticates by username or email. Unknown identifier, inactive
// account and wrong password all come back as the same
// ErrInvalidCredentials; the distinction goes to the log only.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Users.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.Warn("login_failed", "reason", "unknown identifier")
			return nil, apperr.ErrInvalidCredentials
		}
		l.Error("login_failed", "reason", "db_error", "error", err)
		return nil, err
	}
	if !user.IsActive {
		l.Warn("login_failed", "reason", "user inactive", "user_id", user.ID)
		return nil, apperr.ErrInvalidCredentials
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "password mismatch", "user_id", user.ID)
		return nil, apperr.ErrInvalidCredentials
	}

	if err := s.Users.UpdateLastLogin(ctx, user.ID); err != nil {
		l.Error("login_failed", "reason", "cannot update last login", "error", err)
		return nil, err
	}

	accessToken, accessExp, err := tokens.SignAccess(
		user.ID, user.Username, user.Role.Name, user.Role.PermissionList(),
		s.JWTSecret, s.AccessTTL,
	)
	if err != nil {
		l.Error("login_failed", "reason", "cannot sign access token", "error", err)
		return nil, err
	}

	refreshToken, refreshExp, err := tokens.SignRefresh(user.ID, s.RefreshSecret, s.RefreshTTL)
	if err != nil {
		l.Error("login_failed", "reason", "cannot sign refresh token", "error", err)
		return nil, err
	}
	if err := s.Tokens.Save(ctx, user.ID, tokens.Sha256Hex(refreshToken), refreshExp); err != nil {
		l.Error("login_failed", "reason", "cannot persist refresh token", "error", err)
		return nil, err
	}

	s.publish(ctx, events.TopicHunterEvents, user.ID, map[string]any{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})

	l.Info("login_success", "user_id", user.ID)
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, nil
}

// Refresh mints a new access token against a stored refresh token. The
// refresh token is not rotated; the same one stays usable until it is
// revoked or expires. The role and permission snapshot is re-read from
// the user's current state, not copied from the old token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.ParseRefresh(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "reason", "bad signature or shape")
		return nil, apperr.ErrTokenInvalid
	}

	row, err := s.Tokens.Find(ctx, tokens.Sha256Hex(refreshToken))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.Warn("refresh_failed", "reason", "token not on record")
			return nil, apperr.ErrTokenInvalid
		}
		return nil, err
	}
	if row.IsRevoked || time.Now().After(row.ExpiresAt) {
		l.Warn("refresh_failed", "reason", "revoked or expired", "user_id", row.UserID)
		return nil, apperr.ErrTokenInvalid
	}

	userID, err := claims.UserID()
	if err != nil || userID != row.UserID {
		l.Warn("refresh_failed", "reason", "subject mismatch")
		return nil, apperr.ErrTokenInvalid
	}

	user, err := s.Users.GetByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		l.Warn("refresh_failed", "reason", "user inactive", "user_id", user.ID)
		return nil, apperr.ErrUserInactive
	}

	accessToken, accessExp, err := tokens.SignAccess(
		user.ID, user.Username, user.Role.Name, user.Role.PermissionList(),
		s.JWTSecret, s.AccessTTL,
	)
	if err != nil {
		l.Error("refresh_failed", "reason", "cannot sign access token", "error", err)
		return nil, err
	}

	l.Info("refresh_success", "user_id", user.ID)
	return &RefreshResult{AccessToken: accessToken, AccessExp: accessExp}, nil
}

// Logout revokes one refresh token when given, or every live token of the
// user when not. Returns how many tokens were revoked.
func (s *AuthService) Logout(ctx context.Context, userID uint, refreshToken string) (int64, error) {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "user_id", userID)

	var revoked int64
	if refreshToken != "" {
		digest := tokens.Sha256Hex(refreshToken)
		row, err := s.Tokens.Find(ctx, digest)
		if err != nil {
			return 0, err
		}
		if row.UserID != userID {
			l.Warn("logout_failed", "reason", "token belongs to another user")
			return 0, apperr.ErrNotFound
		}
		if err := s.Tokens.Revoke(ctx, digest); err != nil {
			return 0, err
		}
		revoked = 1
	} else {
		n, err := s.Tokens.RevokeAll(ctx, userID)
		if err != nil {
			return 0, err
		}
		revoked = n
	}

	s.publish(ctx, events.TopicHunterEvents, userID, map[string]any{
		"type":    "user_logged_out",
		"user_id": userID,
		"revoked": revoked,
	})

	l.Info("logout_success", "revoked", revoked)
	return revoked, nil
}

func (s *AuthService) RevokeAll(ctx context.Context, userID uint) (int64, error) {
	return s.Tokens.RevokeAll(ctx, userID)
}

func (s *AuthService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.Tokens.CleanupExpired(ctx)
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Info("token_cleanup", "svc", "auth", "deleted", n)
	return n, nil
}

func (s *AuthService) publish(ctx context.Context, topic string, key uint, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(ctx, topic, fmt.Sprint(key), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "error", err)
	}
}
