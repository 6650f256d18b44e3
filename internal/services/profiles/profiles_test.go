package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLoader_Load(t *testing.T) {
	profile := &models.UserProfile{UID: "u1", Role: models.RoleSubscriber}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
	}{
		{
			name: "cache hit skips repository",
			setupMocks: func(_ *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "profile:u1", mock.Anything).Return(true, nil).Once()
			},
		},
		{
			name: "cache miss loads and stores",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "profile:u1", mock.Anything).Return(false, nil).Once()
				r.On("GetProfile", mock.Anything, "u1").Return(profile, nil).Once()
				c.On("Set", mock.Anything, "profile:u1", profile, time.Minute).Return(nil).Once()
			},
		},
		{
			name: "cache failure falls back to repository",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "profile:u1", mock.Anything).Return(false, errors.New("redis down")).Once()
				r.On("GetProfile", mock.Anything, "u1").Return(profile, nil).Once()
				c.On("Set", mock.Anything, "profile:u1", profile, time.Minute).Return(errors.New("redis down")).Once()
			},
		},
		{
			name: "repository error propagates",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "profile:u1", mock.Anything).Return(false, nil).Once()
				r.On("GetProfile", mock.Anything, "u1").Return(nil, models.ErrNotFound).Once()
			},
			wantErr: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, c := new(RepoMock), new(CacheMock)
			tt.setupMocks(repo, c)
			l := NewLoader(repo, c, time.Minute, newNoopLogger())

			got, err := l.Load(context.Background(), "u1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
			}
			repo.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}

func TestLoader_Invalidate(t *testing.T) {
	c := new(CacheMock)
	c.On("Invalidate", mock.Anything, []string{"profile:a", "profile:b"}).Return(errors.New("redis down")).Once()
	l := NewLoader(new(RepoMock), c, time.Minute, newNoopLogger())

	l.Invalidate(context.Background(), "a", "b")
	l.Invalidate(context.Background())
	c.AssertExpectations(t)
}
