// Package subscription реализует машину состояний подписки пользователя.
//
// Все переходы — чистые функции над профилем: они не обращаются к хранилищу
// и получают текущее время параметром. Сохранение выполняет сервис подписок.
package subscription

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/permissions"
)

// TrialPeriod — длительность пробного периода.
const TrialPeriod = 7 * 24 * time.Hour

// addPeriod продлевает дату на один оплачиваемый период.
func addPeriod(t time.Time, typ models.SubscriptionType) time.Time {
	switch typ {
	case models.TypeYearly:
		return t.AddDate(1, 0, 0)
	case models.TypeTrial:
		return t.Add(TrialPeriod)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// IsActive сообщает, действует ли подписка в момент now.
//
// Дата окончания важнее хранимого статуса: ACTIVE/TRIAL с прошедшей датой
// неактивна, а EXPIRED с датой в будущем (не сведённая запись) активна.
// CANCELLED и PENDING неактивны всегда.
func IsActive(sub *models.Subscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	switch sub.Status {
	case models.StatusActive, models.StatusTrial:
		return sub.EndDate == nil || !sub.EndDate.Before(now)
	case models.StatusExpired:
		return sub.EndDate != nil && sub.EndDate.After(now)
	default:
		return false
	}
}

// setRole меняет роль и сбрасывает разрешения на набор роли по умолчанию.
// Роль администратора переходами подписки не затрагивается.
func setRole(p *models.UserProfile, role models.Role) {
	if p.Role == models.RoleAdmin {
		return
	}
	p.Role = role
	p.Permissions = permissions.Default(role)
}

// Create оформляет новую подписку указанного типа.
//
// Пробный период доступен только пользователю без подписки. Пока действует
// оплаченная подписка, новую оформить нельзя — её продлевают или отменяют.
func Create(p *models.UserProfile, typ models.SubscriptionType, now time.Time) error {
	const op = "subscription.Create"
	if !typ.Valid() {
		return fmt.Errorf("%s: unknown subscription type %q: %w", op, typ, models.ErrInvalidArgument)
	}
	if typ == models.TypeTrial && p.Subscription != nil {
		return fmt.Errorf("%s: trial is only available once: %w", op, models.ErrInvalidState)
	}
	if cur := p.Subscription; cur != nil && cur.Type != models.TypeTrial && IsActive(cur, now) {
		return fmt.Errorf("%s: paid subscription still active: %w", op, models.ErrInvalidState)
	}

	end := addPeriod(now, typ)
	sub := &models.Subscription{
		Type:      typ,
		StartDate: now,
		EndDate:   &end,
	}
	if typ == models.TypeTrial {
		sub.Status = models.StatusTrial
		sub.AutoRenew = false
		setRole(p, models.RoleTrialUser)
	} else {
		paidAt := now
		next := end
		sub.Status = models.StatusActive
		sub.AutoRenew = true
		sub.LastPaymentDate = &paidAt
		sub.NextPaymentDate = &next
		setRole(p, models.RoleSubscriber)
	}
	p.Subscription = sub
	return nil
}

// Renew продлевает платную подписку на один период от более поздней из дат:
// now или текущей даты окончания.
func Renew(p *models.UserProfile, now time.Time) error {
	const op = "subscription.Renew"
	sub := p.Subscription
	if sub == nil {
		return fmt.Errorf("%s: %w", op, models.ErrNoSubscription)
	}
	if sub.Type == models.TypeTrial {
		return fmt.Errorf("%s: %w", op, models.ErrTrialRenewal)
	}
	if sub.Status != models.StatusActive && sub.Status != models.StatusExpired {
		return fmt.Errorf("%s: cannot renew %s subscription: %w", op, sub.Status, models.ErrInvalidState)
	}

	from := now
	if sub.EndDate != nil && sub.EndDate.After(now) {
		from = *sub.EndDate
	}
	end := addPeriod(from, sub.Type)
	paidAt := now
	next := end

	sub.Status = models.StatusActive
	sub.EndDate = &end
	sub.LastPaymentDate = &paidAt
	sub.NextPaymentDate = &next
	setRole(p, models.RoleSubscriber)
	return nil
}

// Cancel отменяет подписку. Роль и разрешения понижаются сразу, даже если
// оплаченный период ещё не истёк.
func Cancel(p *models.UserProfile, _ time.Time) error {
	const op = "subscription.Cancel"
	sub := p.Subscription
	if sub == nil {
		return fmt.Errorf("%s: %w", op, models.ErrNoSubscription)
	}
	switch sub.Status {
	case models.StatusActive, models.StatusTrial, models.StatusPending:
	default:
		return fmt.Errorf("%s: cannot cancel %s subscription: %w", op, sub.Status, models.ErrInvalidState)
	}

	sub.Status = models.StatusCancelled
	sub.AutoRenew = false
	sub.NextPaymentDate = nil
	setRole(p, models.RoleFreeUser)
	return nil
}

// Expired сообщает, подлежит ли профиль понижению при очистке истёкших подписок.
func Expired(p *models.UserProfile, now time.Time) bool {
	if p == nil || p.Role == models.RoleAdmin || p.Subscription == nil {
		return false
	}
	sub := p.Subscription
	if sub.Status != models.StatusActive && sub.Status != models.StatusTrial {
		return false
	}
	return sub.EndDate != nil && sub.EndDate.Before(now)
}

// Expire переводит истёкшую подписку в EXPIRED и понижает пользователя до free_user.
// Возвращает false, если профиль не подлежит понижению.
func Expire(p *models.UserProfile, now time.Time) bool {
	if !Expired(p, now) {
		return false
	}
	p.Subscription.Status = models.StatusExpired
	p.Subscription.AutoRenew = false
	p.Subscription.NextPaymentDate = nil
	setRole(p, models.RoleFreeUser)
	return true
}

// RoleFor определяет роль обычного пользователя по состоянию его подписки.
func RoleFor(sub *models.Subscription, now time.Time) models.Role {
	if !IsActive(sub, now) {
		return models.RoleFreeUser
	}
	if sub.Type == models.TypeTrial {
		return models.RoleTrialUser
	}
	return models.RoleSubscriber
}
