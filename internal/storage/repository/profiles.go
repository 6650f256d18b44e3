package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

const profileColumns = `p.uid, p.email, p.display_name, p.password_hash, p.role, p.permissions,
		p.version, p.created_at, p.updated_at,
		s.status, s.type, s.start_date, s.end_date, s.auto_renew,
		s.last_payment_date, s.next_payment_date`

const profileFrom = `FROM profiles p LEFT JOIN subscriptions s ON s.user_uid = p.uid`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.UserProfile, error) {
	var (
		p                                 models.UserProfile
		perms                             []byte
		status, typ                       sql.NullString
		start, end, lastPayment, nextPaid sql.NullTime
		autoRenew                         sql.NullBool
	)
	if err := row.Scan(&p.UID, &p.Email, &p.DisplayName, &p.PasswordHash, &p.Role, &perms,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
		&status, &typ, &start, &end, &autoRenew, &lastPayment, &nextPaid); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(perms, &p.Permissions); err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}
	if status.Valid {
		p.Subscription = &models.Subscription{
			Status:          models.SubscriptionStatus(status.String),
			Type:            models.SubscriptionType(typ.String),
			StartDate:       start.Time,
			EndDate:         nullTime(end),
			AutoRenew:       autoRenew.Bool,
			LastPaymentDate: nullTime(lastPayment),
			NextPaymentDate: nullTime(nextPaid),
		}
	}
	return &p, nil
}

func encodePermissions(perms []models.Permission) ([]byte, error) {
	if perms == nil {
		perms = []models.Permission{}
	}
	return json.Marshal(perms)
}

// GetProfile возвращает профиль вместе с подпиской.
func (s *Storage) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	const op = "repository.GetProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + ` ` + profileFrom + ` WHERE p.uid = $1`
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, uid))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return p, nil
}

// GetProfileByEmail ищет профиль по email.
func (s *Storage) GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	const op = "repository.GetProfileByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + ` ` + profileFrom + ` WHERE p.email = $1`
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return p, nil
}

// CreateProfile сохраняет новый профиль. Подписка, если есть, пишется в той же транзакции.
func (s *Storage) CreateProfile(ctx context.Context, p *models.UserProfile) error {
	const op = "repository.CreateProfile"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	perms, err := encodePermissions(p.Permissions)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO profiles (uid, email, display_name, password_hash, role, permissions, version)
			VALUES ($1, $2, $3, $4, $5, $6, 1)
			RETURNING version, created_at, updated_at`,
			p.UID, p.Email, p.DisplayName, p.PasswordHash, p.Role, perms)
		if err := row.Scan(&p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		if p.Subscription != nil {
			return upsertSubscription(ctx, tx, p.UID, p.Subscription)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	return nil
}

// UpdateProfile сохраняет профиль при совпадении версии. Версия в p увеличивается.
// Несовпадение версии даёт models.ErrConcurrentWrite, отсутствие профиля models.ErrNotFound.
func (s *Storage) UpdateProfile(ctx context.Context, p *models.UserProfile) error {
	const op = "repository.UpdateProfile"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	perms, err := encodePermissions(p.Permissions)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var (
		newVersion int64
		updatedAt  time.Time
	)
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE profiles
			SET email = $3, display_name = $4, password_hash = $5, role = $6, permissions = $7,
			    version = version + 1, updated_at = NOW()
			WHERE uid = $1 AND version = $2
			RETURNING version, updated_at`,
			p.UID, p.Version, p.Email, p.DisplayName, p.PasswordHash, p.Role, perms)
		if err := row.Scan(&newVersion, &updatedAt); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM profiles WHERE uid = $1)`, p.UID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return models.ErrNotFound
			}
			return models.ErrConcurrentWrite
		}

		if p.Subscription == nil {
			_, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE user_uid = $1`, p.UID)
			return err
		}
		return upsertSubscription(ctx, tx, p.UID, p.Subscription)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	p.Version = newVersion
	p.UpdatedAt = updatedAt
	return nil
}

func upsertSubscription(ctx context.Context, tx *sql.Tx, uid string, sub *models.Subscription) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO subscriptions (user_uid, status, type, start_date, end_date, auto_renew,
		                           last_payment_date, next_payment_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_uid) DO UPDATE SET
			status = EXCLUDED.status,
			type = EXCLUDED.type,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			auto_renew = EXCLUDED.auto_renew,
			last_payment_date = EXCLUDED.last_payment_date,
			next_payment_date = EXCLUDED.next_payment_date,
			updated_at = NOW()`,
		uid, sub.Status, sub.Type, sub.StartDate, sub.EndDate, sub.AutoRenew,
		sub.LastPaymentDate, sub.NextPaymentDate)
	return err
}

// DeleteProfile удаляет профиль; подписка и выданные доступы удаляются каскадно,
// заявки на покупку остаются как журнал.
func (s *Storage) DeleteProfile(ctx context.Context, uid string) error {
	const op = "repository.DeleteProfile"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM profiles WHERE uid = $1`, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
