// Package services отдаёт каталог материалов, отфильтрованный по роли пользователя.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/entitlements/internal/entitlement"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/metrics"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// ContentRepository читает материалы. Материалы принадлежат контент-сервису,
// движок их не изменяет.
type ContentRepository interface {
	ListContent(ctx context.Context, kind models.ContentKind) ([]models.ContentItem, error)
	GetContent(ctx context.Context, id string) (*models.ContentItem, error)
}

// ProfileLoader загружает профиль вызывающего.
type ProfileLoader interface {
	Load(ctx context.Context, uid string) (*models.UserProfile, error)
}

// Service фильтрует материалы по роли.
type Service struct {
	repo     ContentRepository
	profiles ProfileLoader
	gate     *entitlement.Gate
	log      *slog.Logger
	now      func() time.Time
}

// NewService создаёт Service. gate задаёт премиальные категории.
func NewService(repo ContentRepository, profiles ProfileLoader, gate *entitlement.Gate, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		gate:     gate,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// caller возвращает профиль вызывающего или nil для анонима. Если профиль не
// загрузился, вызывающий обслуживается как аноним: это никогда не расширяет доступ.
func (s *Service) caller(ctx context.Context, op, uid string) *models.UserProfile {
	if uid == "" {
		return nil
	}
	p, err := s.profiles.Load(ctx, uid)
	if err != nil {
		s.log.Warn("profile unavailable, serving as anonymous", sl.Op(op), slog.String("uid", uid), sl.Err(err))
		return nil
	}
	return p
}

func roleOf(p *models.UserProfile) *models.Role {
	if p == nil {
		return nil
	}
	role := p.Role
	return &role
}

// List возвращает материалы вида kind, видимые вызывающему. Пустой uid означает анонима.
func (s *Service) List(ctx context.Context, uid string, kind models.ContentKind) (entitlement.FilterResult, error) {
	const op = "content.List"

	items, err := s.repo.ListContent(ctx, kind)
	if err != nil {
		return entitlement.FilterResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res := entitlement.Filter(items, roleOf(s.caller(ctx, op, uid)))
	metrics.ContentItems.WithLabelValues("total").Add(float64(res.TotalCount))
	metrics.ContentItems.WithLabelValues("visible").Add(float64(res.FilteredCount))
	s.log.Debug("content filtered",
		sl.Op(op),
		slog.String("kind", string(kind)),
		slog.Int("total", res.TotalCount),
		slog.Int("visible", res.FilteredCount),
	)
	return res, nil
}

// Get возвращает материал, если он виден вызывающему, иначе models.ErrPermissionDenied.
func (s *Service) Get(ctx context.Context, uid, id string) (*models.ContentItem, error) {
	const op = "content.Get"

	item, err := s.repo.GetContent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res := entitlement.Filter([]models.ContentItem{*item}, roleOf(s.caller(ctx, op, uid)))
	if res.FilteredCount == 0 {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPermissionDenied)
	}
	return item, nil
}

// CategoryLocked сообщает, закрыта ли категория для вызывающего.
func (s *Service) CategoryLocked(ctx context.Context, uid, category string) bool {
	const op = "content.CategoryLocked"
	return s.gate.IsCategoryLocked(category, s.caller(ctx, op, uid), s.now())
}
