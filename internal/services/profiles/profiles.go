// Package services загружает профили пользователей с кешированием в Redis.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/entitlements/internal/cache"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// ProfileRepository читает профили из основного хранилища.
type ProfileRepository interface {
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
}

// Cache описывает кеш профилей.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Loader реализует cache-aside: сначала кеш, затем хранилище.
// Ошибки кеша не считаются ошибками загрузки.
type Loader struct {
	repo  ProfileRepository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewLoader создаёт Loader. ttl <= 0 отключает запись в кеш.
func NewLoader(repo ProfileRepository, c Cache, ttl time.Duration, log *slog.Logger) *Loader {
	return &Loader{
		repo:  repo,
		cache: c,
		ttl:   ttl,
		log:   log,
	}
}

// Load возвращает профиль пользователя.
func (l *Loader) Load(ctx context.Context, uid string) (*models.UserProfile, error) {
	const op = "profiles.Load"

	key := cache.ProfileKey(uid)
	var cached models.UserProfile
	found, err := l.cache.Get(ctx, key, &cached)
	if err != nil {
		l.log.Warn("profile cache read failed", sl.Op(op), slog.String("uid", uid), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	p, err := l.Fresh(ctx, uid)
	if err != nil {
		return nil, err
	}
	if l.ttl > 0 {
		if err := l.cache.Set(ctx, key, p, l.ttl); err != nil {
			l.log.Warn("profile cache write failed", sl.Op(op), slog.String("uid", uid), sl.Err(err))
		}
	}
	return p, nil
}

// Fresh читает профиль из хранилища в обход кеша. Используется для проверок
// привилегий, где устаревшая роль недопустима.
func (l *Loader) Fresh(ctx context.Context, uid string) (*models.UserProfile, error) {
	const op = "profiles.Fresh"

	p, err := l.repo.GetProfile(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Invalidate удаляет профили из кеша. Ошибка только логируется:
// запись TTL истечёт сама.
func (l *Loader) Invalidate(ctx context.Context, uids ...string) {
	const op = "profiles.Invalidate"
	if len(uids) == 0 {
		return
	}

	keys := make([]string, 0, len(uids))
	for _, uid := range uids {
		keys = append(keys, cache.ProfileKey(uid))
	}
	if err := l.cache.Invalidate(ctx, keys...); err != nil {
		l.log.Warn("profile cache invalidation failed", sl.Op(op), slog.Int("count", len(keys)), sl.Err(err))
	}
}
