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

const purchaseColumns = `id, user_id, file_id, amount, currency, status, payment_proof, admin_notes,
		created_at, updated_at, verified_at, verified_by`

func scanPurchase(row rowScanner) (*models.Purchase, error) {
	var (
		p                        models.Purchase
		proof, notes, verifiedBy sql.NullString
		verifiedAt               sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.FileID, &p.Amount, &p.Currency, &p.Status,
		&proof, &notes, &p.CreatedAt, &p.UpdatedAt, &verifiedAt, &verifiedBy); err != nil {
		return nil, err
	}
	p.PaymentProof = nullString(proof)
	p.AdminNotes = nullString(notes)
	p.VerifiedAt = nullTime(verifiedAt)
	p.VerifiedBy = nullString(verifiedBy)
	return &p, nil
}

// CreatePurchase сохраняет заявку в статусе pending. Пустой ID заполняется UUID.
func (s *Storage) CreatePurchase(ctx context.Context, p *models.Purchase) error {
	const op = "repository.CreatePurchase"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Status = models.PurchasePending

	row := s.DB.QueryRowContext(ctx, `
		INSERT INTO purchases (id, user_id, file_id, amount, currency, status, payment_proof,
		                       created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.FileID, p.Amount, p.Currency, p.Status, p.PaymentProof, p.CreatedAt)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	return nil
}

// GetPurchase возвращает заявку по ID.
func (s *Storage) GetPurchase(ctx context.Context, id string) (*models.Purchase, error) {
	const op = "repository.GetPurchase"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPurchase(s.DB.QueryRowContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return p, nil
}

// ListPurchases возвращает заявки по фильтру, новые первыми.
func (s *Storage) ListPurchases(ctx context.Context, f models.PurchaseFilter) ([]*models.Purchase, error) {
	const op = "repository.ListPurchases"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+purchaseColumns+` FROM purchases
		WHERE ($1::text = '' OR user_id = $1) AND ($2::text = '' OR status = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`,
		f.UserID, string(f.Status), limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	defer rows.Close()

	var res []*models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
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

// decidePurchase атомарно переводит pending-заявку в status. Если строка не
// изменилась, различает отсутствие заявки и уже принятое решение.
func decidePurchase(ctx context.Context, tx *sql.Tx, id string, status models.PurchaseStatus,
	adminUID string, notes *string, now time.Time) (*models.Purchase, error) {
	var verifiedAt *time.Time
	var verifiedBy *string
	if status == models.PurchaseVerified {
		verifiedAt, verifiedBy = &now, &adminUID
	}

	p, err := scanPurchase(tx.QueryRowContext(ctx, `
		UPDATE purchases
		SET status = $2, admin_notes = COALESCE($3, admin_notes),
		    verified_at = $4, verified_by = $5, updated_at = $6
		WHERE id = $1 AND status = 'pending'
		RETURNING `+purchaseColumns,
		id, status, notes, verifiedAt, verifiedBy, now))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM purchases WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.ErrNotFound
	}
	return nil, models.ErrNotPending
}

// VerifyPurchase подтверждает заявку и выдаёт доступ к файлу в одной транзакции.
// Если у пары (пользователь, файл) уже есть запись доступа, она переиспользуется
// с новым PurchaseID, остальные активные записи пары деактивируются.
func (s *Storage) VerifyPurchase(ctx context.Context, id, adminUID string, notes *string,
	now time.Time) (*models.Purchase, *models.UserAccess, error) {
	const op = "repository.VerifyPurchase"
	if err := checkCtx(ctx, op); err != nil {
		return nil, nil, err
	}

	var (
		purchase *models.Purchase
		access   *models.UserAccess
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		purchase, err = decidePurchase(ctx, tx, id, models.PurchaseVerified, adminUID, notes, now)
		if err != nil {
			return err
		}
		access, err = activateAccess(ctx, tx, &models.UserAccess{
			UserID:     purchase.UserID,
			FileID:     purchase.FileID,
			GrantedAt:  now,
			GrantedBy:  models.GrantedBySystem,
			PurchaseID: purchase.ID,
		}, true)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return purchase, access, nil
}

// RejectPurchase отклоняет pending-заявку, сохраняя причину в заметках администратора.
func (s *Storage) RejectPurchase(ctx context.Context, id, adminUID string, reason *string,
	now time.Time) (*models.Purchase, error) {
	const op = "repository.RejectPurchase"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var purchase *models.Purchase
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		purchase, err = decidePurchase(ctx, tx, id, models.PurchaseRejected, adminUID, reason, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return purchase, nil
}
