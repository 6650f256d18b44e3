package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

// FindExpiredCandidates возвращает не-админские профили, чья подписка в статусе
// active или trial закончилась раньше now. limit <= 0 снимает ограничение.
func (s *Storage) FindExpiredCandidates(ctx context.Context, now time.Time, limit int) ([]*models.UserProfile, error) {
	const op = "repository.FindExpiredCandidates"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + ` ` + profileFrom + `
		WHERE p.role <> 'admin'
		  AND s.status IN ('active', 'trial')
		  AND s.end_date < $1
		ORDER BY p.uid`
	args := []any{now}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	defer rows.Close()

	var res []*models.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, classify(err))
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return res, nil
}

// ExpireSubscriptions одной транзакцией переводит подписки uids в expired и понижает
// профили до free_user с разрешениями perms. Условие отбора повторяется в UPDATE,
// поэтому строки, изменившиеся после поиска кандидатов, не трогаются.
// Возвращает uid фактически изменённых профилей.
func (s *Storage) ExpireSubscriptions(ctx context.Context, uids []string, now time.Time,
	perms []models.Permission) ([]string, error) {
	const op = "repository.ExpireSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return nil, nil
	}

	encoded, err := encodePermissions(perms)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var updated []string
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		// Профили блокируются раньше подписок, как в UpdateProfile.
		if _, err := tx.ExecContext(ctx, `
			SELECT uid FROM profiles
			WHERE uid = ANY($1::text[])
			ORDER BY uid
			FOR UPDATE`, uids); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `
			UPDATE subscriptions s
			SET status = 'expired', updated_at = NOW()
			FROM profiles p
			WHERE s.user_uid = p.uid
			  AND s.user_uid = ANY($1::text[])
			  AND p.role <> 'admin'
			  AND s.status IN ('active', 'trial')
			  AND s.end_date < $2
			RETURNING s.user_uid`, uids, now)
		if err != nil {
			return err
		}
		for rows.Next() {
			var uid string
			if err := rows.Scan(&uid); err != nil {
				rows.Close()
				return err
			}
			updated = append(updated, uid)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(updated) == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE profiles
			SET role = 'free_user', permissions = $2, version = version + 1, updated_at = NOW()
			WHERE uid = ANY($1::text[])`, updated, encoded)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return updated, nil
}
