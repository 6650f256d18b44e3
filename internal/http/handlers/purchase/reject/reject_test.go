package reject

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Reject(ctx context.Context, adminUID, purchaseID, reason string) (*models.Purchase, error) {
	args := m.Called(ctx, adminUID, purchaseID, reason)
	p, _ := args.Get(0).(*models.Purchase)
	return p, args.Error(1)
}

func TestRejectHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	reason := "proof does not match"

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "rejected with reason",
			body: `{"notes":"proof does not match"}`,
			setupMock: func(m *MockService) {
				m.On("Reject", mock.Anything, "admin", "p1", reason).Return(
					&models.Purchase{ID: "p1", Status: models.PurchaseRejected, AdminNotes: &reason}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"rejected"`,
		},
		{
			name: "empty body allowed",
			setupMock: func(m *MockService) {
				m.On("Reject", mock.Anything, "admin", "p1", "").Return(
					&models.Purchase{ID: "p1", Status: models.PurchaseRejected}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"id":"p1"`,
		},
		{
			name: "terminal purchase",
			setupMock: func(m *MockService) {
				m.On("Reject", mock.Anything, "admin", "p1", "").
					Return(nil, fmt.Errorf("ledger.Reject: %w", models.ErrNotPending))
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"purchase is not pending"`,
		},
		{
			name: "missing purchase",
			setupMock: func(m *MockService) {
				m.On("Reject", mock.Anything, "admin", "p1", "").
					Return(nil, fmt.Errorf("ledger.Reject: %w", models.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"not found"`,
		},
		{
			name:           "broken body",
			body:           `{"notes":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `failed to decode request`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases/p1/reject", strings.NewReader(tt.body))
			ctx := middlewarectx.WithIdentity(req.Context(), "admin", "")
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "p1")
			req = req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
