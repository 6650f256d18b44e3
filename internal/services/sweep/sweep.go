// Package services реализует очистку истёкших подписок: пользователи с
// закончившейся подпиской переводятся на бесплатный тариф.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/entitlements/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/metrics"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/permissions"
	"github.com/magabrotheeeer/entitlements/internal/subscription"
)

// LeaseKey — ключ распределённой блокировки очистки.
const LeaseKey = "lease:subscription-sweep"

// SweepRepository ищет и понижает истёкшие подписки.
type SweepRepository interface {
	FindExpiredCandidates(ctx context.Context, now time.Time, limit int) ([]*models.UserProfile, error)
	ExpireSubscriptions(ctx context.Context, uids []string, now time.Time, perms []models.Permission) ([]string, error)
}

// Lease — распределённая блокировка с проверкой владельца при освобождении.
type Lease interface {
	AcquireLease(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLease(ctx context.Context, key, token string) error
}

// ProfileCache сбрасывает закешированные профили.
type ProfileCache interface {
	Invalidate(ctx context.Context, uids ...string)
}

// Publisher публикует доменные события.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Result — итог одного запуска.
type Result struct {
	Candidates int  `json:"candidates"`
	Updated    int  `json:"updated"`
	Skipped    bool `json:"skipped"`
}

// Sweeper выполняет очистку. Одновременно работает не больше одного запуска:
// в процессе это гарантирует мьютекс, между процессами — lease в Redis.
type Sweeper struct {
	mu        sync.Mutex
	repo      SweepRepository
	lease     Lease
	leaseTTL  time.Duration
	batchSize int
	profiles  ProfileCache
	events    Publisher
	log       *slog.Logger
}

// NewSweeper создаёт Sweeper. lease может быть nil, тогда действует только мьютекс.
// batchSize <= 0 обрабатывает всех кандидатов одним пакетом.
func NewSweeper(repo SweepRepository, lease Lease, leaseTTL time.Duration, batchSize int,
	profiles ProfileCache, events Publisher, log *slog.Logger) *Sweeper {
	return &Sweeper{
		repo:      repo,
		lease:     lease,
		leaseTTL:  leaseTTL,
		batchSize: batchSize,
		profiles:  profiles,
		events:    events,
		log:       log,
	}
}

// Sweep понижает всех не-админов, чья подписка active или trial закончилась до now.
// Повторный запуск с тем же now ничего не меняет.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Result, error) {
	const op = "sweep.Sweep"

	if !s.mu.TryLock() {
		s.log.Info("sweep already running in this process, skipping", sl.Op(op))
		metrics.SweepRuns.WithLabelValues("skipped").Inc()
		return Result{Skipped: true}, nil
	}
	defer s.mu.Unlock()

	if s.lease != nil {
		token, ok, err := s.lease.AcquireLease(ctx, LeaseKey, s.leaseTTL)
		switch {
		case err != nil:
			s.log.Warn("sweep lease unavailable, relying on conditional writes", sl.Op(op), sl.Err(err))
		case !ok:
			s.log.Info("sweep lease held by another instance, skipping", sl.Op(op))
			metrics.SweepRuns.WithLabelValues("skipped").Inc()
			return Result{Skipped: true}, nil
		default:
			defer func() {
				if err := s.lease.ReleaseLease(context.WithoutCancel(ctx), LeaseKey, token); err != nil {
					s.log.Warn("failed to release sweep lease", sl.Op(op), sl.Err(err))
				}
			}()
		}
	}

	res, err := s.run(ctx, now)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("error").Inc()
		s.log.Error("sweep failed", sl.Op(op), slog.Int("candidates", res.Candidates),
			slog.Int("updated", res.Updated), sl.Err(err))
		return res, fmt.Errorf("%s: %w", op, err)
	}

	if res.Updated != res.Candidates {
		metrics.SweepRuns.WithLabelValues("partial").Inc()
		s.log.Warn("sweep updated fewer profiles than candidates",
			sl.Op(op), slog.Int("candidates", res.Candidates), slog.Int("updated", res.Updated))
	} else {
		metrics.SweepRuns.WithLabelValues("ok").Inc()
	}
	s.log.Info("sweep finished", sl.Op(op), slog.Int("candidates", res.Candidates), slog.Int("updated", res.Updated))
	return res, nil
}

func (s *Sweeper) run(ctx context.Context, now time.Time) (Result, error) {
	var res Result
	free := permissions.Default(models.RoleFreeUser)

	for {
		candidates, err := s.repo.FindExpiredCandidates(ctx, now, s.batchSize)
		if err != nil {
			return res, err
		}
		if len(candidates) == 0 {
			return res, nil
		}

		expired := make(map[string]*models.UserProfile, len(candidates))
		uids := make([]string, 0, len(candidates))
		for _, p := range candidates {
			if subscription.Expire(p, now) {
				expired[p.UID] = p
				uids = append(uids, p.UID)
			}
		}
		res.Candidates += len(candidates)

		updated, err := s.repo.ExpireSubscriptions(ctx, uids, now, free)
		if err != nil {
			return res, err
		}
		res.Updated += len(updated)
		metrics.SweepDemoted.Add(float64(len(updated)))

		s.profiles.Invalidate(ctx, updated...)
		for _, uid := range updated {
			s.publishExpired(ctx, uid, expired[uid])
		}

		if s.batchSize <= 0 || len(candidates) < s.batchSize || len(updated) == 0 {
			return res, nil
		}
	}
}

func (s *Sweeper) publishExpired(ctx context.Context, uid string, p *models.UserProfile) {
	const op = "sweep.publishExpired"

	ev := models.SubscriptionEvent{UserID: uid, Status: models.StatusExpired, Role: models.RoleFreeUser}
	if p != nil && p.Subscription != nil {
		ev.Type = p.Subscription.Type
		ev.EndDate = p.Subscription.EndDate
	}
	if err := s.events.Publish(ctx, rabbitmq.KeySubscriptionExpired, ev); err != nil {
		s.log.Warn("failed to publish expiry event", sl.Op(op), slog.String("uid", uid), sl.Err(err))
	}
}
