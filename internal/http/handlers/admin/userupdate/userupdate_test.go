package userupdate

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

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UpdateUser(ctx context.Context, actorUID, targetUID string, role models.Role,
	rawPerms []string) (*models.UserProfile, error) {
	args := m.Called(ctx, actorUID, targetUID, role, rawPerms)
	p, _ := args.Get(0).(*models.UserProfile)
	return p, args.Error(1)
}

func TestUserUpdateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		target         string
		requestBody    any
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "explicit permissions",
			target:      "u1",
			requestBody: models.DummyUserUpdate{Role: "free_user", Permissions: []string{"view_blog", "bogus"}},
			setupMock: func(m *MockService) {
				m.On("UpdateUser", mock.Anything, "admin", "u1", models.RoleFreeUser, []string{"view_blog", "bogus"}).
					Return(&models.UserProfile{UID: "u1", Role: models.RoleFreeUser,
						Permissions: []models.Permission{models.PermViewBlog}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"permissions":["view_blog"]`,
		},
		{
			name:        "own account",
			target:      "admin",
			requestBody: models.DummyUserUpdate{Role: "free_user"},
			setupMock: func(m *MockService) {
				m.On("UpdateUser", mock.Anything, "admin", "admin", models.RoleFreeUser, []string(nil)).
					Return(nil, fmt.Errorf("users.UpdateUser: %w", models.ErrSelfRoleChange))
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"cannot modify your own role"`,
		},
		{
			name:        "concurrent write is retryable",
			target:      "u1",
			requestBody: models.DummyUserUpdate{Role: "subscriber"},
			setupMock: func(m *MockService) {
				m.On("UpdateUser", mock.Anything, "admin", "u1", models.RoleSubscriber, []string(nil)).
					Return(nil, fmt.Errorf("users.UpdateUser: %w", models.ErrConcurrentWrite))
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"retryable":true`,
		},
		{
			name:           "missing role",
			target:         "u1",
			requestBody:    map[string]any{"permissions": []string{"view_blog"}},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Role is a required field`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			body, err := json.Marshal(tt.requestBody)
			assert.NoError(t, err)

			req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/users/"+tt.target, bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("uid", tt.target)
			ctx := middlewarectx.WithIdentity(req.Context(), "admin", "")
			req = req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
