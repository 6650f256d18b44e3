package profile

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/permissions"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Load(ctx context.Context, uid string) (*models.UserProfile, error) {
	args := m.Called(ctx, uid)
	p, _ := args.Get(0).(*models.UserProfile)
	return p, args.Error(1)
}

func TestProfileHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 1, 0)

	subscriber := &models.UserProfile{
		UID:         "u1",
		Role:        models.RoleSubscriber,
		Permissions: permissions.Default(models.RoleSubscriber),
		Subscription: &models.Subscription{
			Status: models.StatusActive, Type: models.TypeMonthly, StartDate: now, EndDate: &end,
		},
	}
	admin := &models.UserProfile{UID: "adm", Role: models.RoleAdmin}

	tests := []struct {
		name          string
		uid           string
		profile       *models.UserProfile
		mockErr       error
		wantStatus    int
		wantActive    bool
		wantPremium   bool
		wantPermCount int
	}{
		{
			name: "subscriber", uid: "u1", profile: subscriber, wantStatus: http.StatusOK,
			wantActive: true, wantPremium: true, wantPermCount: len(permissions.Default(models.RoleSubscriber)),
		},
		{
			name: "admin gets full catalog", uid: "adm", profile: admin, wantStatus: http.StatusOK,
			wantPremium: true, wantPermCount: len(models.AllPermissions),
		},
		{name: "store unavailable", uid: "u1", mockErr: models.ErrUnavailable, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Load", mock.Anything, tt.uid).Return(tt.profile, tt.mockErr).Once()

			h := New(logger, svc)
			h.now = func() time.Time { return now }

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			ctx := middlewarectx.WithIdentity(req.Context(), tt.uid, "")
			req = req.WithContext(context.WithValue(ctx, middleware.RequestIDKey, "req-id"))
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var got struct {
				Status string `json:"status"`
				Data   View   `json:"data"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
			assert.Equal(t, "OK", got.Status)
			assert.Equal(t, tt.wantActive, got.Data.SubscriptionActive)
			assert.Equal(t, tt.wantPremium, got.Data.Premium)
			assert.Len(t, got.Data.Permissions, tt.wantPermCount)
		})
	}
}
