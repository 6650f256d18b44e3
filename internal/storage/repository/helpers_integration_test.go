//go:build integration

package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/entitlements/internal/migrations"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/permissions"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort(nat.Port("5432/tcp")),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	cleanup := func() {
		storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// TestDataFactory создаёт тестовые данные напрямую через хранилище.
type TestDataFactory struct {
	storage *Storage
}

func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateProfile создаёт профиль с ролью и разрешениями по умолчанию.
func (f *TestDataFactory) CreateProfile(t *testing.T, uid string, role models.Role,
	sub *models.Subscription) *models.UserProfile {
	p := &models.UserProfile{
		UID:          uid,
		Email:        uid + "@example.com",
		DisplayName:  uid,
		Role:         role,
		Permissions:  permissions.Default(role),
		Subscription: sub,
	}
	require.NoError(t, f.storage.CreateProfile(context.Background(), p))
	return p
}

// CreatePendingPurchase создаёт заявку в статусе pending.
func (f *TestDataFactory) CreatePendingPurchase(t *testing.T, userID, fileID string) *models.Purchase {
	p := &models.Purchase{
		UserID:    userID,
		FileID:    fileID,
		Amount:    1500,
		Currency:  models.CurrencyRSD,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.storage.CreatePurchase(context.Background(), p))
	return p
}

// CreateContent добавляет материал в каталог контента.
func (f *TestDataFactory) CreateContent(t *testing.T, it models.ContentItem) {
	_, err := f.storage.DB.Exec(`INSERT INTO content_items (id, kind, title, category, visibility, is_premium)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		it.ID, it.Kind, it.Title, it.Category, it.Visibility, it.IsPremium)
	require.NoError(t, err)
}

// activeCount считает активные записи пары.
func activeCount(t *testing.T, s *Storage, userID, fileID string) int {
	var n int
	err := s.DB.QueryRow(`SELECT COUNT(*) FROM user_access
		WHERE user_id = $1 AND file_id = $2 AND is_active`, userID, fileID).Scan(&n)
	require.NoError(t, err)
	return n
}
