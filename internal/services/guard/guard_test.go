package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/permissions"
)

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

func TestGuard_CanActivate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 5)
	past := now.AddDate(0, 0, -1)

	profile := func(role models.Role, sub *models.Subscription) *models.UserProfile {
		return &models.UserProfile{UID: "u1", Role: role, Permissions: permissions.Default(role), Subscription: sub}
	}
	activeSub := &models.Subscription{Status: models.StatusActive, Type: models.TypeMonthly, EndDate: &future}
	trialSub := &models.Subscription{Status: models.StatusTrial, Type: models.TypeTrial, EndDate: &future}
	lapsedSub := &models.Subscription{Status: models.StatusActive, Type: models.TypeMonthly, EndDate: &past}

	tests := []struct {
		name    string
		uid     string
		profile *models.UserProfile
		loadErr error
		req     Requirement
		want    Decision
	}{
		{
			name: "anonymous redirected to login with return path",
			uid:  "",
			req:  Requirement{},
			want: Decision{Reason: ReasonNotAuthenticated, RedirectTo: "/login?returnUrl=%2Fpremium%3Fpage%3D2"},
		},
		{
			name:    "profile load error fails closed",
			uid:     "u1",
			loadErr: models.ErrUnavailable,
			req:     Requirement{},
			want:    Decision{Reason: ReasonProfileUnavailable, RedirectTo: DeniedPath},
		},
		{
			name:    "subscription required but lapsed",
			uid:     "u1",
			profile: profile(models.RoleSubscriber, lapsedSub),
			req:     Requirement{RequiresSubscription: true},
			want:    Decision{Reason: ReasonSubscriptionRequired, RedirectTo: SubscribePath},
		},
		{
			name:    "subscription required and active",
			uid:     "u1",
			profile: profile(models.RoleSubscriber, activeSub),
			req:     Requirement{RequiresSubscription: true},
			want:    Decision{Allowed: true, Reason: ReasonAllowed},
		},
		{
			name:    "trial has no premium",
			uid:     "u1",
			profile: profile(models.RoleTrialUser, trialSub),
			req:     Requirement{RequiresSubscription: true, RequiresPremium: true},
			want:    Decision{Reason: ReasonPremiumRequired, RedirectTo: SubscribePath},
		},
		{
			name:    "free user lacks manage permission",
			uid:     "u1",
			profile: profile(models.RoleFreeUser, nil),
			req:     Requirement{Permissions: []models.Permission{models.PermManageUsers}},
			want:    Decision{Reason: ReasonInsufficientPermissions, RedirectTo: DeniedPath},
		},
		{
			name:    "admin uses full catalog regardless of stored permissions",
			uid:     "u1",
			profile: &models.UserProfile{UID: "u1", Role: models.RoleAdmin},
			req: Requirement{
				Permissions:          []models.Permission{models.PermManageUsers, models.PermManagePurchases},
				RequiresSubscription: true,
				RequiresPremium:      true,
			},
			want: Decision{Allowed: true, Reason: ReasonAllowed},
		},
		{
			name:    "no requirements allows any profile",
			uid:     "u1",
			profile: profile(models.RoleFreeUser, nil),
			req:     Requirement{},
			want:    Decision{Allowed: true, Reason: ReasonAllowed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := new(ProfilesMock)
			if tt.uid != "" {
				profiles.On("Load", mock.Anything, tt.uid).Return(tt.profile, tt.loadErr).Once()
			}
			g := NewGuard(profiles, newNoopLogger())
			g.now = func() time.Time { return now }

			got := g.CanActivate(context.Background(), tt.uid, tt.req, "/premium?page=2")
			assert.Equal(t, tt.want, got)
			profiles.AssertExpectations(t)
		})
	}
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/login", LoginRedirect(""))
	assert.Equal(t, "/login?returnUrl=%2Fblog", LoginRedirect("/blog"))
}
