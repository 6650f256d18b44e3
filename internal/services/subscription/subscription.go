// Package services сохраняет переходы подписки пользователя: оформление,
// продление и отмену, с оптимистичной блокировкой по версии профиля.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/entitlements/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/permissions"
	"github.com/magabrotheeeer/entitlements/internal/subscription"
)

// maxAttempts ограничивает повторы при конкурентной записи профиля.
const maxAttempts = 3

// ProfileRepository читает и сохраняет профиль с проверкой версии.
type ProfileRepository interface {
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, p *models.UserProfile) error
}

// ProfileCache отдаёт профиль для чтения и сбрасывает его после записи.
type ProfileCache interface {
	Load(ctx context.Context, uid string) (*models.UserProfile, error)
	Invalidate(ctx context.Context, uids ...string)
}

// Publisher публикует доменные события.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Status — текущее состояние подписки пользователя.
type Status struct {
	Subscription *models.Subscription `json:"subscription,omitempty"`
	Active       bool                 `json:"active"`
	Role         models.Role          `json:"role"`
	Permissions  []models.Permission  `json:"permissions"`
	Premium      bool                 `json:"premium"`
}

// SubscriptionService выполняет переходы подписки и сохраняет их.
type SubscriptionService struct {
	repo     ProfileRepository
	profiles ProfileCache
	events   Publisher
	log      *slog.Logger
	now      func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo ProfileRepository, profiles ProfileCache, events Publisher,
	log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:     repo,
		profiles: profiles,
		events:   events,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe оформляет подписку типа typ.
func (s *SubscriptionService) Subscribe(ctx context.Context, uid string, typ models.SubscriptionType) (*models.UserProfile, error) {
	return s.transition(ctx, "subscription.Subscribe", uid, rabbitmq.KeySubscriptionCreated,
		func(p *models.UserProfile, now time.Time) error {
			return subscription.Create(p, typ, now)
		})
}

// Renew продлевает подписку на один период.
func (s *SubscriptionService) Renew(ctx context.Context, uid string) (*models.UserProfile, error) {
	return s.transition(ctx, "subscription.Renew", uid, rabbitmq.KeySubscriptionRenewed, subscription.Renew)
}

// Cancel отменяет подписку; доступ понижается сразу.
func (s *SubscriptionService) Cancel(ctx context.Context, uid string) (*models.UserProfile, error) {
	return s.transition(ctx, "subscription.Cancel", uid, rabbitmq.KeySubscriptionCancelled, subscription.Cancel)
}

// Status возвращает подписку, признак активности и действующие разрешения.
func (s *SubscriptionService) Status(ctx context.Context, uid string) (*Status, error) {
	const op = "subscription.Status"

	p, err := s.profiles.Load(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	effective := permissions.Effective(p)
	return &Status{
		Subscription: p.Subscription,
		Active:       subscription.IsActive(p.Subscription, s.now()),
		Role:         p.Role,
		Permissions:  effective.Slice(),
		Premium:      permissions.HasPremiumAccess(effective),
	}, nil
}

// transition читает свежий профиль, применяет apply и сохраняет результат.
// При конкурентной записи чтение и применение повторяются.
func (s *SubscriptionService) transition(ctx context.Context, op, uid, eventKey string,
	apply func(p *models.UserProfile, now time.Time) error) (*models.UserProfile, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p, err := s.repo.GetProfile(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := apply(p, s.now()); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		err = s.repo.UpdateProfile(ctx, p)
		if err == nil {
			s.profiles.Invalidate(ctx, uid)
			s.publish(ctx, op, eventKey, p)
			s.log.Info("subscription transition applied",
				sl.Op(op),
				slog.String("uid", uid),
				slog.String("status", string(p.Subscription.Status)),
				slog.String("role", string(p.Role)),
			)
			return p, nil
		}
		if !errors.Is(err, models.ErrConcurrentWrite) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		lastErr = err
		s.log.Debug("concurrent profile write, retrying", sl.Op(op), slog.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("%s: %w", op, lastErr)
}

func (s *SubscriptionService) publish(ctx context.Context, op, key string, p *models.UserProfile) {
	ev := models.SubscriptionEvent{
		UserID:  p.UID,
		Status:  p.Subscription.Status,
		Type:    p.Subscription.Type,
		EndDate: p.Subscription.EndDate,
		Role:    p.Role,
	}
	if err := s.events.Publish(ctx, key, ev); err != nil {
		s.log.Warn("failed to publish subscription event", sl.Op(op), slog.String("key", key), sl.Err(err))
	}
}
