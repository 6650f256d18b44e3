// Package repository реализует хранилище движка доступа на PostgreSQL:
// профили с подписками, заявки на покупку, выданные доступы к файлам
// и каталог контента (только чтение).
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

const (
	uniqueViolation      = "23505"
	foreignKeyViolation  = "23503"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New открывает подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "repository.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'user_access'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table user_access missing or query error: %w", err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// withTx выполняет fn в транзакции: ошибка fn откатывает всё, иначе фиксирует.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// classify переводит ошибку драйвера в класс ошибок движка.
// Уже классифицированные ошибки возвращаются как есть.
func classify(err error) error {
	var reason *models.Reason
	switch {
	case err == nil:
		return nil
	case errors.As(err, &reason):
		return err
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrInvalidArgument):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return models.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", models.ErrUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %w", models.ErrInternal, err)
	}
	switch pgErr.Code {
	case uniqueViolation:
		if pgErr.ConstraintName == "profiles_email_key" {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("%w: %s", models.ErrInvalidState, pgErr.ConstraintName)
	case foreignKeyViolation:
		// Ссылка на удалённый профиль.
		return fmt.Errorf("%w: %s", models.ErrNotFound, pgErr.ConstraintName)
	case serializationFailure, deadlockDetected:
		return fmt.Errorf("%w: %w", models.ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %w", models.ErrInternal, err)
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, classify(ctx.Err()))
	default:
		return nil
	}
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
