// Package entitlement содержит чистые функции принятия решений о доступе к материалам.
//
// Здесь два разных шлюза с разной строгостью:
//   - CanAccessContent проверяет только роль против видимости материала;
//   - Gate.IsCategoryLocked для премиальных категорий учитывает даты подписки.
//
// Функции пакета не возвращают ошибок: любое неизвестное значение трактуется как отказ.
package entitlement

import (
	"time"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

// CanAccessContent решает, может ли роль видеть материал с указанной видимостью.
// role == nil означает анонимного пользователя.
func CanAccessContent(role *models.Role, visibility models.Visibility) bool {
	if visibility == models.VisibilityPublic {
		return true
	}
	if role == nil {
		return false
	}
	if *role == models.RoleAdmin {
		return true
	}
	switch visibility {
	case models.VisibilitySubscriber:
		return *role == models.RoleSubscriber || *role == models.RoleTrialUser
	case models.VisibilityAdmin:
		return *role == models.RoleAdmin
	default:
		return false
	}
}

// DefaultGatedCategories — категории активностей, закрытые без действующей подписки.
var DefaultGatedCategories = []string{"premium", "masterclass"}

// Gate проверяет блокировку премиальных категорий.
type Gate struct {
	gated map[string]struct{}
}

// NewGate создаёт Gate для перечисленных категорий; без аргументов
// используются DefaultGatedCategories.
func NewGate(categories ...string) *Gate {
	if len(categories) == 0 {
		categories = DefaultGatedCategories
	}
	g := &Gate{gated: make(map[string]struct{}, len(categories))}
	for _, c := range categories {
		g.gated[c] = struct{}{}
	}
	return g
}

// Gated сообщает, закрыта ли категория подпиской.
func (g *Gate) Gated(category string) bool {
	_, ok := g.gated[category]
	return ok
}

// IsCategoryLocked сообщает, заблокирована ли категория для профиля.
//
// Дата окончания в будущем открывает категорию независимо от хранимого статуса.
func (g *Gate) IsCategoryLocked(category string, profile *models.UserProfile, now time.Time) bool {
	if !g.Gated(category) {
		return false
	}
	if profile == nil {
		return true
	}
	if profile.Role == models.RoleAdmin {
		return false
	}
	sub := profile.Subscription
	if sub == nil {
		return true
	}
	if sub.EndDate != nil && sub.EndDate.After(now) {
		return false
	}
	switch sub.Status {
	case models.StatusCancelled, models.StatusExpired, models.StatusPending:
		return true
	}
	if sub.EndDate != nil && sub.EndDate.Before(now) {
		return true
	}
	return false
}
