package renew

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Renew(ctx context.Context, uid string) (*models.UserProfile, error) {
	args := m.Called(ctx, uid)
	p, _ := args.Get(0).(*models.UserProfile)
	return p, args.Error(1)
}

func TestRenewHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	tests := []struct {
		name           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "renewed",
			setupMock: func(m *MockService) {
				m.On("Renew", mock.Anything, "u1").Return(&models.UserProfile{
					UID:  "u1",
					Role: models.RoleSubscriber,
					Subscription: &models.Subscription{
						Status: models.StatusActive, Type: models.TypeMonthly, StartDate: start, EndDate: &end,
					},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"role":"subscriber"`,
		},
		{
			name: "trial cannot be renewed",
			setupMock: func(m *MockService) {
				m.On("Renew", mock.Anything, "u1").
					Return(nil, fmt.Errorf("subscription.Renew: %w", models.ErrTrialRenewal))
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"trial subscriptions cannot be renewed"`,
		},
		{
			name: "no subscription",
			setupMock: func(m *MockService) {
				m.On("Renew", mock.Anything, "u1").
					Return(nil, fmt.Errorf("subscription.Renew: %w", models.ErrNoSubscription))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"no subscription"`,
		},
		{
			name: "concurrent write is retryable",
			setupMock: func(m *MockService) {
				m.On("Renew", mock.Anything, "u1").
					Return(nil, fmt.Errorf("subscription.Renew: %w", models.ErrConcurrentWrite))
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"retryable":true`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/renew", nil)
			ctx := middlewarectx.WithIdentity(req.Context(), "u1", "u1@example.com")
			req = req.WithContext(context.WithValue(ctx, middleware.RequestIDKey, "req-id"))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
