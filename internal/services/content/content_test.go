package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/entitlements/internal/entitlement"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListContent(ctx context.Context, kind models.ContentKind) ([]models.ContentItem, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ContentItem), args.Error(1)
}

func (m *RepoMock) GetContent(ctx context.Context, id string) (*models.ContentItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContentItem), args.Error(1)
}

type ProfilesMock struct{ mock.Mock }

func (m *ProfilesMock) Load(ctx context.Context, uid string) (*models.UserProfile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var catalog = []models.ContentItem{
	{ID: "pub", Kind: models.KindBlog, Visibility: models.VisibilityPublic},
	{ID: "unset", Kind: models.KindBlog},
	{ID: "pub-premium", Kind: models.KindBlog, Visibility: models.VisibilityPublic, IsPremium: true},
	{ID: "sub", Kind: models.KindBlog, Visibility: models.VisibilitySubscriber},
	{ID: "adm", Kind: models.KindBlog, Visibility: models.VisibilityAdmin},
}

func ids(items []models.ContentItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestService_List(t *testing.T) {
	tests := []struct {
		name    string
		uid     string
		profile *models.UserProfile
		loadErr error
		want    []string
	}{
		{name: "anonymous", uid: "", want: []string{"pub", "unset"}},
		{
			name:    "free user sees premium public",
			uid:     "u1",
			profile: &models.UserProfile{UID: "u1", Role: models.RoleFreeUser},
			want:    []string{"pub", "unset", "pub-premium"},
		},
		{
			name:    "subscriber",
			uid:     "u1",
			profile: &models.UserProfile{UID: "u1", Role: models.RoleSubscriber},
			want:    []string{"pub", "unset", "pub-premium", "sub"},
		},
		{
			name:    "admin sees all",
			uid:     "u1",
			profile: &models.UserProfile{UID: "u1", Role: models.RoleAdmin},
			want:    []string{"pub", "unset", "pub-premium", "sub", "adm"},
		},
		{
			name:    "profile unavailable falls back to anonymous",
			uid:     "u1",
			loadErr: models.ErrUnavailable,
			want:    []string{"pub", "unset"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, profiles := new(RepoMock), new(ProfilesMock)
			repo.On("ListContent", mock.Anything, models.KindBlog).Return(catalog, nil).Once()
			if tt.uid != "" {
				profiles.On("Load", mock.Anything, tt.uid).Return(tt.profile, tt.loadErr).Once()
			}
			s := NewService(repo, profiles, entitlement.NewGate(), newNoopLogger())

			res, err := s.List(context.Background(), tt.uid, models.KindBlog)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(res.Items))
			assert.Equal(t, len(catalog), res.TotalCount)
			assert.Equal(t, len(tt.want), res.FilteredCount)
			profiles.AssertExpectations(t)
		})
	}
}

func TestService_Get(t *testing.T) {
	repo, profiles := new(RepoMock), new(ProfilesMock)
	repo.On("GetContent", mock.Anything, "sub").Return(&catalog[3], nil)
	repo.On("GetContent", mock.Anything, "missing").Return(nil, models.ErrNotFound)
	profiles.On("Load", mock.Anything, "free").Return(&models.UserProfile{UID: "free", Role: models.RoleFreeUser}, nil)
	profiles.On("Load", mock.Anything, "paid").Return(&models.UserProfile{UID: "paid", Role: models.RoleSubscriber}, nil)
	s := NewService(repo, profiles, entitlement.NewGate(), newNoopLogger())
	ctx := context.Background()

	_, err := s.Get(ctx, "free", "sub")
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	item, err := s.Get(ctx, "paid", "sub")
	require.NoError(t, err)
	assert.Equal(t, "sub", item.ID)

	_, err = s.Get(ctx, "paid", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_CategoryLocked(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 10)
	profiles := new(ProfilesMock)
	profiles.On("Load", mock.Anything, "paid").Return(&models.UserProfile{
		UID:  "paid",
		Role: models.RoleSubscriber,
		Subscription: &models.Subscription{
			Status: models.StatusActive, Type: models.TypeMonthly, EndDate: &future,
		},
	}, nil)
	s := NewService(new(RepoMock), profiles, entitlement.NewGate("premium"), newNoopLogger())
	s.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, s.CategoryLocked(ctx, "", "premium"))
	assert.False(t, s.CategoryLocked(ctx, "", "yoga"))
	assert.False(t, s.CategoryLocked(ctx, "paid", "premium"))
}
