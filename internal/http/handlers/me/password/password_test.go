package password

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) SetPassword(ctx context.Context, uid, current, next string) error {
	return m.Called(ctx, uid, current, next).Error(0)
}

func TestPasswordHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "changed",
			body: `{"current_password":"old-secret","new_password":"new-secret"}`,
			setupMock: func(m *MockService) {
				m.On("SetPassword", mock.Anything, "u1", "old-secret", "new-secret").Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"password_changed":true`,
		},
		{
			name: "first password without current",
			body: `{"new_password":"new-secret"}`,
			setupMock: func(m *MockService) {
				m.On("SetPassword", mock.Anything, "u1", "", "new-secret").Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"password_changed":true`,
		},
		{
			name: "wrong current password",
			body: `{"current_password":"guess","new_password":"new-secret"}`,
			setupMock: func(m *MockService) {
				m.On("SetPassword", mock.Anything, "u1", "guess", "new-secret").
					Return(fmt.Errorf("users.SetPassword: %w", models.ErrWrongPassword))
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"password verification failed"`,
		},
		{
			name:           "short password",
			body:           `{"current_password":"old-secret","new_password":"short"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `must be at least 8`,
		},
		{
			name:           "broken body",
			body:           `{"new_password":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `failed to decode request`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/me/password", strings.NewReader(tt.body))
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
