// Package services ведёт журнал заявок на покупку и выданных доступов к файлам.
//
// Подтверждение заявки и выдача доступа выполняются хранилищем атомарно;
// сервис проверяет роль администратора по хранилищу, а не по кешу.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/entitlements/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/metrics"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// LedgerRepository хранит заявки и доступы.
type LedgerRepository interface {
	CreatePurchase(ctx context.Context, p *models.Purchase) error
	GetPurchase(ctx context.Context, id string) (*models.Purchase, error)
	ListPurchases(ctx context.Context, f models.PurchaseFilter) ([]*models.Purchase, error)
	VerifyPurchase(ctx context.Context, id, adminUID string, notes *string, now time.Time) (*models.Purchase, *models.UserAccess, error)
	RejectPurchase(ctx context.Context, id, adminUID string, reason *string, now time.Time) (*models.Purchase, error)
	GrantAccess(ctx context.Context, a *models.UserAccess) (*models.UserAccess, error)
	RevokeAccess(ctx context.Context, userID, fileID string, now time.Time) (*models.UserAccess, error)
	HasAccess(ctx context.Context, userID, fileID string, now time.Time) (bool, error)
	AccessibleFiles(ctx context.Context, userID string, fileIDs []string, now time.Time) (map[string]bool, error)
	ListActiveAccess(ctx context.Context, userID string) ([]*models.UserAccess, error)
}

// ProfileReader читает профиль в обход кеша.
type ProfileReader interface {
	Fresh(ctx context.Context, uid string) (*models.UserProfile, error)
}

// Publisher публикует доменные события.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Service реализует операции журнала.
type Service struct {
	repo     LedgerRepository
	profiles ProfileReader
	events   Publisher
	log      *slog.Logger
	now      func() time.Time
}

// NewService создаёт Service.
func NewService(repo LedgerRepository, profiles ProfileReader, events Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		events:   events,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// requireAdmin проверяет роль по хранилищу.
func (s *Service) requireAdmin(ctx context.Context, uid string) error {
	if uid == "" {
		return models.ErrUnauthenticated
	}
	p, err := s.profiles.Fresh(ctx, uid)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrAdminRequired
	}
	if err != nil {
		return err
	}
	if !p.IsAdmin() {
		return models.ErrAdminRequired
	}
	return nil
}

func (s *Service) publish(ctx context.Context, op, key string, payload any) {
	if err := s.events.Publish(ctx, key, payload); err != nil {
		s.log.Warn("failed to publish ledger event", sl.Op(op), slog.String("key", key), sl.Err(err))
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInvalidState):
		return "conflict"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrPermissionDenied), errors.Is(err, models.ErrUnauthenticated):
		return "denied"
	default:
		return "error"
	}
}

// CreatePurchase регистрирует заявку пользователя uid на файл fileID в статусе pending.
func (s *Service) CreatePurchase(ctx context.Context, uid, fileID string, amount int64,
	currency models.Currency, proof string) (*models.Purchase, error) {
	const op = "ledger.CreatePurchase"

	if uid == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("%s: file id is required: %w", op, models.ErrInvalidArgument)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%s: amount must be positive: %w", op, models.ErrInvalidArgument)
	}
	if !currency.Valid() {
		return nil, fmt.Errorf("%s: unsupported currency %q: %w", op, currency, models.ErrInvalidArgument)
	}

	p := &models.Purchase{
		UserID:       uid,
		FileID:       fileID,
		Amount:       amount,
		Currency:     currency,
		PaymentProof: optional(proof),
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreatePurchase(ctx, p); err != nil {
		metrics.PurchaseTransitions.WithLabelValues(string(models.PurchasePending), outcome(err)).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.PurchaseTransitions.WithLabelValues(string(models.PurchasePending), "ok").Inc()
	s.log.Info("purchase requested", sl.Op(op), slog.String("purchase_id", p.ID), slog.String("uid", uid))
	return p, nil
}

// Verify подтверждает заявку и выдаёт доступ. Повторное подтверждение даёт
// models.ErrNotPending, заявка и доступ при этом не меняются.
func (s *Service) Verify(ctx context.Context, adminUID, purchaseID, notes string) (*models.Purchase, *models.UserAccess, error) {
	const op = "ledger.Verify"

	purchase, access, err := s.verify(ctx, adminUID, purchaseID, notes)
	metrics.PurchaseTransitions.WithLabelValues(string(models.PurchaseVerified), outcome(err)).Inc()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, op, rabbitmq.KeyPurchaseVerified, models.PurchaseEvent{
		PurchaseID: purchase.ID,
		UserID:     purchase.UserID,
		FileID:     purchase.FileID,
		Status:     purchase.Status,
		DecidedBy:  adminUID,
	})
	s.publish(ctx, op, rabbitmq.KeyAccessGranted, models.AccessEvent{
		UserID:     access.UserID,
		FileID:     access.FileID,
		PurchaseID: access.PurchaseID,
		Actor:      adminUID,
	})
	s.log.Info("purchase verified",
		sl.Op(op),
		slog.String("purchase_id", purchase.ID),
		slog.String("access_id", access.ID),
		slog.String("admin", adminUID),
	)
	return purchase, access, nil
}

func (s *Service) verify(ctx context.Context, adminUID, purchaseID, notes string) (*models.Purchase, *models.UserAccess, error) {
	if err := s.requireAdmin(ctx, adminUID); err != nil {
		return nil, nil, err
	}
	if purchaseID == "" {
		return nil, nil, fmt.Errorf("purchase id is required: %w", models.ErrInvalidArgument)
	}
	return s.repo.VerifyPurchase(ctx, purchaseID, adminUID, optional(notes), s.now())
}

// Reject отклоняет заявку; доступ не выдаётся и не отзывается.
func (s *Service) Reject(ctx context.Context, adminUID, purchaseID, reason string) (*models.Purchase, error) {
	const op = "ledger.Reject"

	purchase, err := s.reject(ctx, adminUID, purchaseID, reason)
	metrics.PurchaseTransitions.WithLabelValues(string(models.PurchaseRejected), outcome(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, op, rabbitmq.KeyPurchaseRejected, models.PurchaseEvent{
		PurchaseID: purchase.ID,
		UserID:     purchase.UserID,
		FileID:     purchase.FileID,
		Status:     purchase.Status,
		DecidedBy:  adminUID,
	})
	s.log.Info("purchase rejected", sl.Op(op), slog.String("purchase_id", purchase.ID), slog.String("admin", adminUID))
	return purchase, nil
}

func (s *Service) reject(ctx context.Context, adminUID, purchaseID, reason string) (*models.Purchase, error) {
	if err := s.requireAdmin(ctx, adminUID); err != nil {
		return nil, err
	}
	if purchaseID == "" {
		return nil, fmt.Errorf("purchase id is required: %w", models.ErrInvalidArgument)
	}
	return s.repo.RejectPurchase(ctx, purchaseID, adminUID, optional(reason), s.now())
}

// GrantAdminAccess выдаёт доступ без покупки. PurchaseID получает маркер
// admin-granted-<ms>, GrantedBy — uid администратора.
func (s *Service) GrantAdminAccess(ctx context.Context, adminUID, userID, fileID, notes string,
	expiresAt *time.Time) (*models.UserAccess, error) {
	const op = "ledger.GrantAdminAccess"

	if err := s.requireAdmin(ctx, adminUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if userID == "" || fileID == "" {
		return nil, fmt.Errorf("%s: user and file are required: %w", op, models.ErrInvalidArgument)
	}
	now := s.now()
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, fmt.Errorf("%s: expiry must be in the future: %w", op, models.ErrInvalidArgument)
	}
	if _, err := s.profiles.Fresh(ctx, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	granted, err := s.repo.GrantAccess(ctx, &models.UserAccess{
		UserID:     userID,
		FileID:     fileID,
		GrantedAt:  now,
		GrantedBy:  adminUID,
		PurchaseID: models.AdminGrantMarker(now),
		ExpiresAt:  expiresAt,
		Notes:      optional(notes),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, op, rabbitmq.KeyAccessGranted, models.AccessEvent{
		UserID:     userID,
		FileID:     fileID,
		PurchaseID: granted.PurchaseID,
		Actor:      adminUID,
	})
	s.log.Info("access granted by admin",
		sl.Op(op),
		slog.String("uid", userID),
		slog.String("file_id", fileID),
		slog.String("admin", adminUID),
	)
	return granted, nil
}

// RevokeAccess отзывает активный доступ. Без активного доступа models.ErrNotFound.
func (s *Service) RevokeAccess(ctx context.Context, adminUID, userID, fileID string) (*models.UserAccess, error) {
	const op = "ledger.RevokeAccess"

	if err := s.requireAdmin(ctx, adminUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if userID == "" || fileID == "" {
		return nil, fmt.Errorf("%s: user and file are required: %w", op, models.ErrInvalidArgument)
	}

	revoked, err := s.repo.RevokeAccess(ctx, userID, fileID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, op, rabbitmq.KeyAccessRevoked, models.AccessEvent{
		UserID:     userID,
		FileID:     fileID,
		PurchaseID: revoked.PurchaseID,
		Actor:      adminUID,
	})
	s.log.Info("access revoked",
		sl.Op(op),
		slog.String("uid", userID),
		slog.String("file_id", fileID),
		slog.String("admin", adminUID),
	)
	return revoked, nil
}

// HasAccess сообщает, есть ли у пользователя действующий доступ к файлу.
func (s *Service) HasAccess(ctx context.Context, userID, fileID string) (bool, error) {
	const op = "ledger.HasAccess"

	ok, err := s.repo.HasAccess(ctx, userID, fileID, s.now())
	if err != nil {
		metrics.AccessChecks.WithLabelValues("single", "error").Inc()
		return false, fmt.Errorf("%s: %w", op, err)
	}
	metrics.AccessChecks.WithLabelValues("single", "ok").Inc()
	return ok, nil
}

// HasMultipleAccess проверяет доступ к набору файлов. Результат содержит каждый
// запрошенный id. Если пакетный запрос не удался, файлы проверяются по одному;
// файл, проверка которого не удалась, получает false.
func (s *Service) HasMultipleAccess(ctx context.Context, userID string, fileIDs []string) map[string]bool {
	const op = "ledger.HasMultipleAccess"

	res := make(map[string]bool, len(fileIDs))
	unique := make([]string, 0, len(fileIDs))
	for _, id := range fileIDs {
		if _, seen := res[id]; seen {
			continue
		}
		res[id] = false
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return res
	}

	now := s.now()
	batch, err := s.repo.AccessibleFiles(ctx, userID, unique, now)
	if err == nil {
		metrics.AccessChecks.WithLabelValues("batch", "ok").Inc()
		for _, id := range unique {
			res[id] = batch[id]
		}
		return res
	}

	metrics.AccessChecks.WithLabelValues("batch", "error").Inc()
	s.log.Warn("batch access check failed, checking files one by one",
		sl.Op(op), slog.String("uid", userID), slog.Int("files", len(unique)), sl.Err(err))
	for _, id := range unique {
		ok, err := s.repo.HasAccess(ctx, userID, id, now)
		if err != nil {
			metrics.AccessChecks.WithLabelValues("fallback", "error").Inc()
			s.log.Warn("access check failed, reporting no access",
				sl.Op(op), slog.String("uid", userID), slog.String("file_id", id), sl.Err(err))
			continue
		}
		metrics.AccessChecks.WithLabelValues("fallback", "ok").Inc()
		res[id] = ok
	}
	return res
}

// ListPurchases возвращает заявки. Администратор видит все заявки, остальные только свои.
func (s *Service) ListPurchases(ctx context.Context, callerUID string, f models.PurchaseFilter) ([]*models.Purchase, error) {
	const op = "ledger.ListPurchases"

	err := s.requireAdmin(ctx, callerUID)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrAdminRequired):
		f.UserID = callerUID
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	list, err := s.repo.ListPurchases(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// GetPurchase возвращает заявку по ID. Чужая заявка для не-администратора
// неотличима от отсутствующей.
func (s *Service) GetPurchase(ctx context.Context, callerUID, purchaseID string) (*models.Purchase, error) {
	const op = "ledger.GetPurchase"

	if purchaseID == "" {
		return nil, fmt.Errorf("%s: purchase id is required: %w", op, models.ErrInvalidArgument)
	}
	err := s.requireAdmin(ctx, callerUID)
	isAdmin := err == nil
	if err != nil && !errors.Is(err, models.ErrAdminRequired) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.repo.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !isAdmin && p.UserID != callerUID {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return p, nil
}

// ListUserAccess возвращает активные доступы пользователя.
func (s *Service) ListUserAccess(ctx context.Context, uid string) ([]*models.UserAccess, error) {
	const op = "ledger.ListUserAccess"

	if uid == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	list, err := s.repo.ListActiveAccess(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}
