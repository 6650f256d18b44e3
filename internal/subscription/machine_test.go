package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/permissions"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func freeProfile() *models.UserProfile {
	return &models.UserProfile{
		UID:         "u1",
		Role:        models.RoleFreeUser,
		Permissions: permissions.Default(models.RoleFreeUser),
	}
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		name string
		sub  *models.Subscription
		want bool
	}{
		{name: "nil subscription", sub: nil, want: false},
		{name: "active in period", sub: &models.Subscription{Status: models.StatusActive, EndDate: ptr(now.Add(time.Hour))}, want: true},
		{name: "active ending exactly now", sub: &models.Subscription{Status: models.StatusActive, EndDate: ptr(now)}, want: true},
		{name: "active but end date passed", sub: &models.Subscription{Status: models.StatusActive, EndDate: ptr(now.Add(-time.Second))}, want: false},
		{name: "trial without end date", sub: &models.Subscription{Status: models.StatusTrial}, want: true},
		{name: "stale expired with future end date", sub: &models.Subscription{Status: models.StatusExpired, EndDate: ptr(now.Add(24 * time.Hour))}, want: true},
		{name: "expired in the past", sub: &models.Subscription{Status: models.StatusExpired, EndDate: ptr(now.Add(-time.Hour))}, want: false},
		{name: "cancelled with future end date", sub: &models.Subscription{Status: models.StatusCancelled, EndDate: ptr(now.Add(time.Hour))}, want: false},
		{name: "pending", sub: &models.Subscription{Status: models.StatusPending}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsActive(tt.sub, now))
		})
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name       string
		typ        models.SubscriptionType
		wantStatus models.SubscriptionStatus
		wantRole   models.Role
		wantEnd    time.Time
		wantRenew  bool
	}{
		{name: "trial", typ: models.TypeTrial, wantStatus: models.StatusTrial, wantRole: models.RoleTrialUser, wantEnd: now.AddDate(0, 0, 7), wantRenew: false},
		{name: "monthly", typ: models.TypeMonthly, wantStatus: models.StatusActive, wantRole: models.RoleSubscriber, wantEnd: now.AddDate(0, 1, 0), wantRenew: true},
		{name: "yearly", typ: models.TypeYearly, wantStatus: models.StatusActive, wantRole: models.RoleSubscriber, wantEnd: now.AddDate(1, 0, 0), wantRenew: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := freeProfile()
			require.NoError(t, Create(p, tt.typ, now))

			require.NotNil(t, p.Subscription)
			assert.Equal(t, tt.wantStatus, p.Subscription.Status)
			assert.Equal(t, tt.wantRole, p.Role)
			assert.Equal(t, permissions.Default(tt.wantRole), p.Permissions)
			assert.True(t, tt.wantEnd.Equal(*p.Subscription.EndDate))
			assert.Equal(t, tt.wantRenew, p.Subscription.AutoRenew)
			assert.True(t, IsActive(p.Subscription, now))
		})
	}
}

func TestCreate_Rejections(t *testing.T) {
	p := freeProfile()
	err := Create(p, models.SubscriptionType("weekly"), now)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	require.NoError(t, Create(p, models.TypeMonthly, now))
	assert.ErrorIs(t, Create(p, models.TypeYearly, now), models.ErrInvalidState, "paid subscription still running")
	assert.ErrorIs(t, Create(p, models.TypeTrial, now), models.ErrInvalidState, "trial only once")

	trial := freeProfile()
	require.NoError(t, Create(trial, models.TypeTrial, now))
	assert.NoError(t, Create(trial, models.TypeMonthly, now.Add(time.Hour)), "trial can be upgraded")
	assert.Equal(t, models.RoleSubscriber, trial.Role)
}

func TestCreate_AdminKeepsRole(t *testing.T) {
	p := &models.UserProfile{Role: models.RoleAdmin}
	require.NoError(t, Create(p, models.TypeMonthly, now))
	assert.Equal(t, models.RoleAdmin, p.Role)
}

func TestRenew(t *testing.T) {
	t.Run("extends from previous end date when still running", func(t *testing.T) {
		p := freeProfile()
		require.NoError(t, Create(p, models.TypeMonthly, now))
		prevEnd := *p.Subscription.EndDate

		require.NoError(t, Renew(p, now.Add(24*time.Hour)))
		assert.True(t, prevEnd.AddDate(0, 1, 0).Equal(*p.Subscription.EndDate))
	})

	t.Run("extends from now when expired", func(t *testing.T) {
		p := freeProfile()
		require.NoError(t, Create(p, models.TypeYearly, now))
		later := now.AddDate(2, 0, 0)
		require.True(t, Expire(p, later))

		require.NoError(t, Renew(p, later))
		assert.Equal(t, models.StatusActive, p.Subscription.Status)
		assert.Equal(t, models.RoleSubscriber, p.Role)
		assert.True(t, later.AddDate(1, 0, 0).Equal(*p.Subscription.EndDate))
	})

	t.Run("trial cannot be renewed", func(t *testing.T) {
		p := freeProfile()
		require.NoError(t, Create(p, models.TypeTrial, now))
		err := Renew(p, now)
		assert.ErrorIs(t, err, models.ErrTrialRenewal)
		assert.ErrorIs(t, err, models.ErrInvalidState)
	})

	t.Run("cancelled cannot be renewed", func(t *testing.T) {
		p := freeProfile()
		require.NoError(t, Create(p, models.TypeMonthly, now))
		require.NoError(t, Cancel(p, now))
		assert.ErrorIs(t, Renew(p, now), models.ErrInvalidState)
	})

	t.Run("no subscription", func(t *testing.T) {
		assert.ErrorIs(t, Renew(freeProfile(), now), models.ErrNotFound)
	})
}

func TestCancel(t *testing.T) {
	p := freeProfile()
	require.NoError(t, Create(p, models.TypeMonthly, now))

	require.NoError(t, Cancel(p, now))
	assert.Equal(t, models.StatusCancelled, p.Subscription.Status)
	assert.False(t, p.Subscription.AutoRenew)
	assert.Equal(t, models.RoleFreeUser, p.Role)
	assert.Equal(t, permissions.Default(models.RoleFreeUser), p.Permissions)
	assert.True(t, p.Subscription.EndDate.After(now), "paid period is kept on record")
	assert.False(t, IsActive(p.Subscription, now))

	assert.ErrorIs(t, Cancel(p, now), models.ErrInvalidState)
}

func TestExpire(t *testing.T) {
	p := freeProfile()
	require.NoError(t, Create(p, models.TypeTrial, now))

	assert.False(t, Expire(p, now.AddDate(0, 0, 6)), "still within trial")

	day8 := now.AddDate(0, 0, 8)
	assert.True(t, Expire(p, day8))
	assert.Equal(t, models.StatusExpired, p.Subscription.Status)
	assert.Equal(t, models.RoleFreeUser, p.Role)

	assert.False(t, Expire(p, day8), "second run changes nothing")
}

func TestExpire_AdminExempt(t *testing.T) {
	p := &models.UserProfile{
		Role:         models.RoleAdmin,
		Subscription: &models.Subscription{Status: models.StatusActive, Type: models.TypeMonthly, EndDate: ptr(now.Add(-time.Hour))},
	}
	assert.False(t, Expire(p, now))
	assert.Equal(t, models.StatusActive, p.Subscription.Status)
}

func TestRoleFor(t *testing.T) {
	assert.Equal(t, models.RoleFreeUser, RoleFor(nil, now))
	assert.Equal(t, models.RoleTrialUser, RoleFor(&models.Subscription{Status: models.StatusTrial, Type: models.TypeTrial, EndDate: ptr(now.Add(time.Hour))}, now))
	assert.Equal(t, models.RoleSubscriber, RoleFor(&models.Subscription{Status: models.StatusActive, Type: models.TypeMonthly, EndDate: ptr(now.Add(time.Hour))}, now))
	assert.Equal(t, models.RoleFreeUser, RoleFor(&models.Subscription{Status: models.StatusCancelled, Type: models.TypeMonthly, EndDate: ptr(now.Add(time.Hour))}, now))
}
