package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

const contentColumns = `id, kind, title, category, visibility, is_premium`

// ListContent возвращает материалы заданного вида; пустой kind означает все виды.
func (s *Storage) ListContent(ctx context.Context, kind models.ContentKind) ([]models.ContentItem, error) {
	const op = "repository.ListContent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+contentColumns+` FROM content_items
		WHERE ($1::text = '' OR kind = $1)
		ORDER BY created_at DESC, id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	defer rows.Close()

	var res []models.ContentItem
	for rows.Next() {
		var it models.ContentItem
		if err := rows.Scan(&it.ID, &it.Kind, &it.Title, &it.Category, &it.Visibility, &it.IsPremium); err != nil {
			return nil, fmt.Errorf("%s: %w", op, classify(err))
		}
		res = append(res, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return res, nil
}

// GetContent возвращает материал по ID.
func (s *Storage) GetContent(ctx context.Context, id string) (*models.ContentItem, error) {
	const op = "repository.GetContent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var it models.ContentItem
	err := s.DB.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content_items WHERE id = $1`, id).
		Scan(&it.ID, &it.Kind, &it.Title, &it.Category, &it.Visibility, &it.IsPremium)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return &it, nil
}
