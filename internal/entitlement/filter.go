package entitlement

import "github.com/magabrotheeeer/entitlements/internal/models"

// FilterResult — отфильтрованные материалы и счётчики для наблюдаемости.
type FilterResult struct {
	Items         []models.ContentItem `json:"items"`
	TotalCount    int                  `json:"total_count"`
	FilteredCount int                  `json:"filtered_count"`
}

// Filter оставляет материалы, доступные роли. Пустая видимость считается PUBLIC.
// Для анонимного пользователя (role == nil) исключаются и премиальные материалы.
func Filter(items []models.ContentItem, role *models.Role) FilterResult {
	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		visibility := item.Visibility
		if visibility == "" {
			visibility = models.VisibilityPublic
		}
		if role == nil && item.IsPremium {
			continue
		}
		if !CanAccessContent(role, visibility) {
			continue
		}
		out = append(out, item)
	}
	return FilterResult{
		Items:         out,
		TotalCount:    len(items),
		FilteredCount: len(out),
	}
}
