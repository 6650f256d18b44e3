// Package services реализует Access Guard: проверку права на защищённую операцию
// с перенаправлением на понятный следующий шаг при отказе.
package services

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/metrics"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/permissions"
	"github.com/magabrotheeeer/entitlements/internal/subscription"
)

// Адреса перенаправления при отказе.
const (
	LoginPath     = "/login"
	SubscribePath = "/subscribe"
	DeniedPath    = "/access-denied"
)

// Причины решений.
const (
	ReasonAllowed                 = "allowed"
	ReasonNotAuthenticated        = "not_authenticated"
	ReasonProfileUnavailable      = "profile_unavailable"
	ReasonSubscriptionRequired    = "subscription_required"
	ReasonPremiumRequired         = "premium_required"
	ReasonInsufficientPermissions = "insufficient_permissions"
)

// ProfileLoader загружает профиль пользователя.
type ProfileLoader interface {
	Load(ctx context.Context, uid string) (*models.UserProfile, error)
}

// Requirement — условия доступа к защищённой операции.
type Requirement struct {
	Permissions          []models.Permission
	RequiresSubscription bool
	RequiresPremium      bool
}

// Decision — результат проверки. При отказе RedirectTo указывает следующий шаг.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	Reason     string `json:"reason"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// Guard принимает решения о доступе. Любая ошибка загрузки профиля даёт отказ.
type Guard struct {
	profiles ProfileLoader
	log      *slog.Logger
	now      func() time.Time
}

// NewGuard создаёт Guard.
func NewGuard(profiles ProfileLoader, log *slog.Logger) *Guard {
	return &Guard{
		profiles: profiles,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// LoginRedirect строит адрес входа с возвратом на requestedPath.
func LoginRedirect(requestedPath string) string {
	if requestedPath == "" {
		return LoginPath
	}
	return LoginPath + "?returnUrl=" + url.QueryEscape(requestedPath)
}

// CanActivate проверяет, может ли uid выполнить операцию с требованиями req.
func (g *Guard) CanActivate(ctx context.Context, uid string, req Requirement, requestedPath string) Decision {
	const op = "guard.CanActivate"

	d := g.decide(ctx, op, uid, req, requestedPath)
	result := "allow"
	if !d.Allowed {
		result = "deny"
		g.log.Info("access denied",
			sl.Op(op),
			slog.String("uid", uid),
			slog.String("reason", d.Reason),
			slog.String("path", requestedPath),
		)
	}
	metrics.GuardDecisions.WithLabelValues(result, d.Reason).Inc()
	return d
}

func (g *Guard) decide(ctx context.Context, op, uid string, req Requirement, requestedPath string) Decision {
	if uid == "" {
		return Decision{Reason: ReasonNotAuthenticated, RedirectTo: LoginRedirect(requestedPath)}
	}

	p, err := g.profiles.Load(ctx, uid)
	if err != nil || p == nil {
		g.log.Warn("profile load failed, denying", sl.Op(op), slog.String("uid", uid), sl.Err(err))
		return Decision{Reason: ReasonProfileUnavailable, RedirectTo: DeniedPath}
	}

	if req.RequiresSubscription && p.Role != models.RoleAdmin && !subscription.IsActive(p.Subscription, g.now()) {
		return Decision{Reason: ReasonSubscriptionRequired, RedirectTo: SubscribePath}
	}

	effective := permissions.Effective(p)
	if req.RequiresPremium && !permissions.HasPremiumAccess(effective) {
		return Decision{Reason: ReasonPremiumRequired, RedirectTo: SubscribePath}
	}
	if !effective.HasAll(req.Permissions...) {
		return Decision{Reason: ReasonInsufficientPermissions, RedirectTo: DeniedPath}
	}
	return Decision{Allowed: true, Reason: ReasonAllowed}
}
