package cancel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Cancel(ctx context.Context, uid string) (*models.UserProfile, error) {
	args := m.Called(ctx, uid)
	p, _ := args.Get(0).(*models.UserProfile)
	return p, args.Error(1)
}

func TestCancelHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		profile        *models.UserProfile
		mockErr        error
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "cancelled drops role",
			profile: &models.UserProfile{
				UID: "u1", Role: models.RoleFreeUser,
				Subscription: &models.Subscription{Status: models.StatusCancelled, Type: models.TypeMonthly},
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"role":"free_user"`,
		},
		{
			name:           "no subscription",
			mockErr:        fmt.Errorf("subscription.Cancel: %w", models.ErrNoSubscription),
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"no subscription"`,
		},
		{
			name:           "already cancelled",
			mockErr:        fmt.Errorf("subscription.Cancel: %w", models.ErrInvalidState),
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"invalid state"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Cancel", mock.Anything, "u1").Return(tt.profile, tt.mockErr).Once()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/cancel", nil)
			req = req.WithContext(middlewarectx.WithIdentity(req.Context(), "u1", ""))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
