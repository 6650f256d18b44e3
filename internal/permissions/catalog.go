// Package permissions — единственный источник истины о наборах разрешений ролей.
package permissions

import (
	"slices"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Set — множество разрешений.
type Set map[models.Permission]struct{}

// NewSet строит множество из перечисленных разрешений.
func NewSet(perms ...models.Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has сообщает, содержит ли множество разрешение.
func (s Set) Has(p models.Permission) bool {
	_, ok := s[p]
	return ok
}

// HasAll сообщает, является ли множество надмножеством required.
func (s Set) HasAll(required ...models.Permission) bool {
	for _, p := range required {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Slice возвращает разрешения в порядке каталога.
func (s Set) Slice() []models.Permission {
	out := make([]models.Permission, 0, len(s))
	for _, p := range models.AllPermissions {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

var (
	subscriberDefaults = []models.Permission{
		models.PermViewActivities,
		models.PermViewPremiumActivities,
		models.PermViewBlog,
		models.PermViewPremiumBlog,
		models.PermDownloadPDF,
		models.PermDownloadVideo,
		models.PermViewProfile,
		models.PermEditProfile,
		models.PermManageOwnSubscription,
	}
	trialDefaults = []models.Permission{
		models.PermViewActivities,
		models.PermViewBlog,
		models.PermViewProfile,
		models.PermEditProfile,
		models.PermManageOwnSubscription,
	}
	freeDefaults = []models.Permission{
		models.PermViewBlog,
		models.PermViewProfile,
		models.PermEditProfile,
	}
)

// Default возвращает набор разрешений роли по умолчанию.
// Для неизвестной роли возвращается пустой набор.
func Default(role models.Role) []models.Permission {
	switch role {
	case models.RoleAdmin:
		return slices.Clone(models.AllPermissions)
	case models.RoleSubscriber:
		return slices.Clone(subscriberDefaults)
	case models.RoleTrialUser:
		return slices.Clone(trialDefaults)
	case models.RoleFreeUser:
		return slices.Clone(freeDefaults)
	default:
		return []models.Permission{}
	}
}

// Effective возвращает действующий набор разрешений профиля: администратор
// всегда получает весь каталог независимо от хранимого набора.
func Effective(p *models.UserProfile) Set {
	if p == nil {
		return Set{}
	}
	if p.Role == models.RoleAdmin {
		return NewSet(models.AllPermissions...)
	}
	return NewSet(p.Permissions...)
}

// HasPremiumAccess сообщает, даёт ли набор доступ к премиальным материалам.
func HasPremiumAccess(s Set) bool {
	return s.Has(models.PermViewPremiumActivities) || s.Has(models.PermViewPremiumBlog)
}

// Parse превращает строки в разрешения, отбрасывая неизвестные значения.
func Parse(raw []string) ([]models.Permission, bool) {
	out := make([]models.Permission, 0, len(raw))
	ok := true
	for _, r := range raw {
		p := models.Permission(r)
		if !p.Valid() {
			ok = false
			continue
		}
		out = append(out, p)
	}
	return out, ok
}
