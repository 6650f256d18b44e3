// Package services реализует администрирование пользователей и
// самостоятельное управление учётной записью.
//
// Привилегированные операции всегда перечитывают роль вызывающего из
// хранилища: роль из токена или кеша для них не используется.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/entitlements/internal/lib/password"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/permissions"
	"github.com/magabrotheeeer/entitlements/internal/subscription"
)

const maxAttempts = 3

// UserRepository хранит профили пользователей.
type UserRepository interface {
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	CreateProfile(ctx context.Context, p *models.UserProfile) error
	UpdateProfile(ctx context.Context, p *models.UserProfile) error
	DeleteProfile(ctx context.Context, uid string) error
}

// ProfileCache сбрасывает закешированные профили после записи.
type ProfileCache interface {
	Invalidate(ctx context.Context, uids ...string)
}

// UserService управляет профилями пользователей.
type UserService struct {
	repo     UserRepository
	profiles ProfileCache
	log      *slog.Logger
	now      func() time.Time
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, profiles ProfileCache, log *slog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		profiles: profiles,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) requireAdmin(ctx context.Context, actorUID string) error {
	if actorUID == "" {
		return models.ErrUnauthenticated
	}
	actor, err := s.repo.GetProfile(ctx, actorUID)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrAdminRequired
	}
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return models.ErrAdminRequired
	}
	return nil
}

// mutate перечитывает профиль, применяет fn и сохраняет с проверкой версии.
func (s *UserService) mutate(ctx context.Context, uid string,
	fn func(p *models.UserProfile) error) (*models.UserProfile, error) {
	var lastErr error
	for range maxAttempts {
		p, err := s.repo.GetProfile(ctx, uid)
		if err != nil {
			return nil, err
		}
		if err := fn(p); err != nil {
			return nil, err
		}
		err = s.repo.UpdateProfile(ctx, p)
		if err == nil {
			s.profiles.Invalidate(ctx, uid)
			return p, nil
		}
		if !errors.Is(err, models.ErrConcurrentWrite) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// AssignAdmin назначает пользователю роль администратора.
func (s *UserService) AssignAdmin(ctx context.Context, actorUID, targetUID string) (*models.UserProfile, error) {
	const op = "users.AssignAdmin"

	if err := s.requireAdmin(ctx, actorUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if actorUID == targetUID {
		return nil, fmt.Errorf("%s: %w", op, models.ErrSelfRoleChange)
	}

	p, err := s.mutate(ctx, targetUID, func(p *models.UserProfile) error {
		p.Role = models.RoleAdmin
		p.Permissions = permissions.Default(models.RoleAdmin)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin role assigned", sl.Op(op), slog.String("actor", actorUID), slog.String("target", targetUID))
	return p, nil
}

// RemoveAdmin снимает роль администратора. Новая роль выводится из живой
// подписки пользователя.
func (s *UserService) RemoveAdmin(ctx context.Context, actorUID, targetUID string) (*models.UserProfile, error) {
	const op = "users.RemoveAdmin"

	if err := s.requireAdmin(ctx, actorUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if actorUID == targetUID {
		return nil, fmt.Errorf("%s: %w", op, models.ErrSelfRoleChange)
	}

	now := s.now()
	p, err := s.mutate(ctx, targetUID, func(p *models.UserProfile) error {
		role := subscription.RoleFor(p.Subscription, now)
		p.Role = role
		p.Permissions = permissions.Default(role)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin role removed", sl.Op(op), slog.String("actor", actorUID),
		slog.String("target", targetUID), slog.String("role", string(p.Role)))
	return p, nil
}

// CreateUser создаёт учётную запись с заданной ролью. Пароль необязателен.
func (s *UserService) CreateUser(ctx context.Context, actorUID, email string, role models.Role,
	rawPassword string) (*models.UserProfile, error) {
	const op = "users.CreateUser"

	if err := s.requireAdmin(ctx, actorUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	email = strings.TrimSpace(email)
	if email == "" || !role.Valid() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidArgument)
	}
	// Уникальность email гарантирует ограничение в хранилище; проверка здесь
	// лишь избавляет от хеширования пароля для заведомо занятого адреса.
	switch _, err := s.repo.GetProfileByEmail(ctx, email); {
	case err == nil:
		return nil, fmt.Errorf("%s: %w", op, models.ErrEmailTaken)
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := &models.UserProfile{
		UID:         uuid.NewString(),
		Email:       email,
		Role:        role,
		Permissions: permissions.Default(role),
	}
	if rawPassword != "" {
		hash, err := password.GetHash(rawPassword)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p.PasswordHash = hash
	}
	if err := s.repo.CreateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user created", sl.Op(op), slog.String("actor", actorUID), slog.String("uid", p.UID),
		slog.String("role", string(role)))
	return p, nil
}

// UpdateUser меняет роль пользователя и, если переданы, явный набор разрешений.
// Без разрешений применяется набор роли по умолчанию.
func (s *UserService) UpdateUser(ctx context.Context, actorUID, targetUID string, role models.Role,
	rawPerms []string) (*models.UserProfile, error) {
	const op = "users.UpdateUser"

	if err := s.requireAdmin(ctx, actorUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if actorUID == targetUID {
		return nil, fmt.Errorf("%s: %w", op, models.ErrSelfRoleChange)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidArgument)
	}
	perms := permissions.Default(role)
	if rawPerms != nil {
		parsed, ok := permissions.Parse(rawPerms)
		if !ok {
			return nil, fmt.Errorf("%s: unknown permission: %w", op, models.ErrInvalidArgument)
		}
		perms = parsed
	}

	p, err := s.mutate(ctx, targetUID, func(p *models.UserProfile) error {
		p.Role = role
		p.Permissions = perms
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user updated", sl.Op(op), slog.String("actor", actorUID), slog.String("target", targetUID),
		slog.String("role", string(role)))
	return p, nil
}

// DeleteUser удаляет чужую учётную запись. Подписка и доступы удаляются вместе с ней.
func (s *UserService) DeleteUser(ctx context.Context, actorUID, targetUID string) error {
	const op = "users.DeleteUser"

	if err := s.requireAdmin(ctx, actorUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if actorUID == targetUID {
		return fmt.Errorf("%s: %w", op, models.ErrSelfDelete)
	}
	if err := s.repo.DeleteProfile(ctx, targetUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.profiles.Invalidate(ctx, targetUID)
	s.log.Info("user deleted", sl.Op(op), slog.String("actor", actorUID), slog.String("target", targetUID))
	return nil
}

// EnsureProfile возвращает профиль пользователя, создавая его с ролью free_user
// при первом обращении.
func (s *UserService) EnsureProfile(ctx context.Context, uid, email string) (*models.UserProfile, error) {
	const op = "users.EnsureProfile"

	if uid == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	p, err := s.repo.GetProfile(ctx, uid)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p = &models.UserProfile{
		UID:         uid,
		Email:       email,
		Role:        models.RoleFreeUser,
		Permissions: permissions.Default(models.RoleFreeUser),
	}
	err = s.repo.CreateProfile(ctx, p)
	switch {
	case err == nil:
		s.log.Info("profile created on first authentication", sl.Op(op), slog.String("uid", uid))
		return p, nil
	case errors.Is(err, models.ErrEmailTaken):
		return nil, fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, models.ErrInvalidState):
		// профиль создан параллельным запросом
		p, err = s.repo.GetProfile(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}

// DeleteSelf удаляет собственную учётную запись после проверки пароля.
func (s *UserService) DeleteSelf(ctx context.Context, uid, rawPassword string) error {
	const op = "users.DeleteSelf"

	if uid == "" {
		return fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	p, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(p.PasswordHash, rawPassword); err != nil {
		s.log.Warn("self delete rejected", sl.Op(op), slog.String("uid", uid), sl.Err(err))
		return fmt.Errorf("%s: %w", op, models.ErrWrongPassword)
	}
	if err := s.repo.DeleteProfile(ctx, uid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.profiles.Invalidate(ctx, uid)
	s.log.Info("account deleted by owner", sl.Op(op), slog.String("uid", uid))
	return nil
}

// UpdateOwnProfile меняет отображаемое имя. Роль и разрешения не затрагиваются.
func (s *UserService) UpdateOwnProfile(ctx context.Context, uid, displayName string) (*models.UserProfile, error) {
	const op = "users.UpdateOwnProfile"

	if uid == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidArgument)
	}
	p, err := s.mutate(ctx, uid, func(p *models.UserProfile) error {
		p.DisplayName = displayName
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// SetPassword задаёт новый пароль. Если пароль уже был, требуется текущий.
func (s *UserService) SetPassword(ctx context.Context, uid, current, next string) error {
	const op = "users.SetPassword"

	if uid == "" {
		return fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	hash, err := password.GetHash(next)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.mutate(ctx, uid, func(p *models.UserProfile) error {
		if p.PasswordHash != "" {
			if err := password.CompareHash(p.PasswordHash, current); err != nil {
				return models.ErrWrongPassword
			}
		}
		p.PasswordHash = hash
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("password changed", sl.Op(op), slog.String("uid", uid))
	return nil
}
