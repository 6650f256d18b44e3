package check

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) HasAccess(ctx context.Context, userID, fileID string) (bool, error) {
	args := m.Called(ctx, userID, fileID)
	return args.Bool(0), args.Error(1)
}

func TestCheckHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "has access",
			setupMock: func(m *MockService) {
				m.On("HasAccess", mock.Anything, "u1", "f1").Return(true, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"has_access":true`,
		},
		{
			name: "no access",
			setupMock: func(m *MockService) {
				m.On("HasAccess", mock.Anything, "u1", "f1").Return(false, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"has_access":false`,
		},
		{
			name: "storage unavailable is retryable",
			setupMock: func(m *MockService) {
				m.On("HasAccess", mock.Anything, "u1", "f1").
					Return(false, fmt.Errorf("ledger.HasAccess: %w", models.ErrUnavailable))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `"retryable":true`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/files/f1/access", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("fileID", "f1")
			ctx := middlewarectx.WithIdentity(req.Context(), "u1", "u1@example.com")
			req = req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
