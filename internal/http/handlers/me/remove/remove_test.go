package remove

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
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

func (m *MockService) DeleteSelf(ctx context.Context, uid, password string) error {
	return m.Called(ctx, uid, password).Error(0)
}

func TestRemoveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "deleted",
			requestBody: models.DummySelfDelete{Password: "pw"},
			setupMock: func(m *MockService) {
				m.On("DeleteSelf", mock.Anything, "u1", "pw").Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"deleted":"u1"`,
		},
		{
			name:           "invalid json",
			requestBody:    "not a json",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode request"}`,
		},
		{
			name:           "missing password",
			requestBody:    models.DummySelfDelete{},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"error":"field Password is a required field"`,
		},
		{
			name:        "wrong password",
			requestBody: models.DummySelfDelete{Password: "bad"},
			setupMock: func(m *MockService) {
				m.On("DeleteSelf", mock.Anything, "u1", "bad").
					Return(fmt.Errorf("users.DeleteSelf: %w", models.ErrWrongPassword))
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"password verification failed"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			var body []byte
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				var err error
				body, err = json.Marshal(tt.requestBody)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/me", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
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
