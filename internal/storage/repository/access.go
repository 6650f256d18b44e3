package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

const accessColumns = `id, user_id, file_id, granted_at, granted_by, is_active, purchase_id,
		expires_at, notes, revoked_at`

func scanAccess(row rowScanner) (*models.UserAccess, error) {
	var (
		a                  models.UserAccess
		expires, revokedAt sql.NullTime
		notes              sql.NullString
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.FileID, &a.GrantedAt, &a.GrantedBy, &a.IsActive,
		&a.PurchaseID, &expires, &notes, &revokedAt); err != nil {
		return nil, err
	}
	a.ExpiresAt = nullTime(expires)
	a.Notes = nullString(notes)
	a.RevokedAt = nullTime(revokedAt)
	return &a, nil
}

// lockPair сериализует запись доступов одной пары (пользователь, файл) до конца транзакции.
func lockPair(ctx context.Context, tx *sql.Tx, userID, fileID string) error {
	_, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2::text))`, userID, fileID)
	return err
}

// activateAccess делает a единственной активной записью пары. Действующая запись
// всегда деактивируется с отметкой revoked_at и остаётся в истории. При reuse
// последняя неактивная запись пары включается заново, иначе вставляется новая.
func activateAccess(ctx context.Context, tx *sql.Tx, a *models.UserAccess, reuse bool) (*models.UserAccess, error) {
	if err := lockPair(ctx, tx, a.UserID, a.FileID); err != nil {
		return nil, err
	}

	var reuseID string
	if reuse {
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM user_access
			WHERE user_id = $1 AND file_id = $2 AND NOT is_active
			ORDER BY granted_at DESC
			LIMIT 1`, a.UserID, a.FileID).Scan(&reuseID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE user_access SET is_active = false, revoked_at = $3
		WHERE user_id = $1 AND file_id = $2 AND is_active`,
		a.UserID, a.FileID, a.GrantedAt); err != nil {
		return nil, err
	}

	if reuseID != "" {
		return scanAccess(tx.QueryRowContext(ctx, `
			UPDATE user_access
			SET is_active = true, purchase_id = $2, granted_at = $3, granted_by = $4,
			    expires_at = $5, notes = $6, revoked_at = NULL
			WHERE id = $1
			RETURNING `+accessColumns,
			reuseID, a.PurchaseID, a.GrantedAt, a.GrantedBy, a.ExpiresAt, a.Notes))
	}

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return scanAccess(tx.QueryRowContext(ctx, `
		INSERT INTO user_access (id, user_id, file_id, granted_at, granted_by, is_active,
		                         purchase_id, expires_at, notes)
		VALUES ($1, $2, $3, $4, $5, true, $6, $7, $8)
		RETURNING `+accessColumns,
		a.ID, a.UserID, a.FileID, a.GrantedAt, a.GrantedBy, a.PurchaseID, a.ExpiresAt, a.Notes))
}

// GrantAccess выдаёт доступ новой записью, деактивируя прежнюю активную запись пары.
func (s *Storage) GrantAccess(ctx context.Context, a *models.UserAccess) (*models.UserAccess, error) {
	const op = "repository.GrantAccess"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var granted *models.UserAccess
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		granted, err = activateAccess(ctx, tx, a, false)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return granted, nil
}

// RevokeAccess деактивирует активную запись пары. Без активной записи models.ErrNotFound.
func (s *Storage) RevokeAccess(ctx context.Context, userID, fileID string, now time.Time) (*models.UserAccess, error) {
	const op = "repository.RevokeAccess"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var revoked *models.UserAccess
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockPair(ctx, tx, userID, fileID); err != nil {
			return err
		}
		var err error
		revoked, err = scanAccess(tx.QueryRowContext(ctx, `
			UPDATE user_access SET is_active = false, revoked_at = $3
			WHERE user_id = $1 AND file_id = $2 AND is_active
			RETURNING `+accessColumns, userID, fileID, now))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return revoked, nil
}

// HasAccess сообщает, есть ли у пользователя действующий доступ к файлу в момент now.
func (s *Storage) HasAccess(ctx context.Context, userID, fileID string, now time.Time) (bool, error) {
	const op = "repository.HasAccess"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var ok bool
	err := s.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_access
			WHERE user_id = $1 AND file_id = $2 AND is_active
			  AND (expires_at IS NULL OR expires_at > $3)
		)`, userID, fileID, now).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, classify(err))
	}
	return ok, nil
}

// AccessibleFiles возвращает подмножество fileIDs, к которым у пользователя есть
// действующий доступ, одним запросом.
func (s *Storage) AccessibleFiles(ctx context.Context, userID string, fileIDs []string,
	now time.Time) (map[string]bool, error) {
	const op = "repository.AccessibleFiles"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT DISTINCT file_id FROM user_access
		WHERE user_id = $1 AND file_id = ANY($2::text[]) AND is_active
		  AND (expires_at IS NULL OR expires_at > $3)`, userID, fileIDs, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	defer rows.Close()

	res := make(map[string]bool, len(fileIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, classify(err))
		}
		res[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return res, nil
}

// ListActiveAccess возвращает активные записи доступа пользователя.
func (s *Storage) ListActiveAccess(ctx context.Context, userID string) ([]*models.UserAccess, error) {
	const op = "repository.ListActiveAccess"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+accessColumns+` FROM user_access
		WHERE user_id = $1 AND is_active
		ORDER BY granted_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	defer rows.Close()

	var res []*models.UserAccess
	for rows.Next() {
		a, err := scanAccess(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, classify(err))
		}
		res = append(res, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return res, nil
}
