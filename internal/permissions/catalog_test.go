package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

func TestDefault(t *testing.T) {
	tests := []struct {
		name    string
		role    models.Role
		has     []models.Permission
		hasNot  []models.Permission
		wantLen int
	}{
		{
			name:    "admin gets whole catalog",
			role:    models.RoleAdmin,
			has:     []models.Permission{models.PermManageUsers, models.PermDownloadVideo},
			wantLen: len(models.AllPermissions),
		},
		{
			name: "subscriber gets premium content and downloads",
			role: models.RoleSubscriber,
			has: []models.Permission{
				models.PermViewPremiumActivities, models.PermViewPremiumBlog,
				models.PermDownloadPDF, models.PermDownloadVideo, models.PermManageOwnSubscription,
			},
			hasNot:  []models.Permission{models.PermManageUsers},
			wantLen: 9,
		},
		{
			name:    "trial user has no premium tier nor downloads",
			role:    models.RoleTrialUser,
			has:     []models.Permission{models.PermViewActivities, models.PermViewBlog, models.PermManageOwnSubscription},
			hasNot:  []models.Permission{models.PermViewPremiumActivities, models.PermDownloadPDF},
			wantLen: 5,
		},
		{
			name:    "free user reads blog only",
			role:    models.RoleFreeUser,
			has:     []models.Permission{models.PermViewBlog, models.PermEditProfile},
			hasNot:  []models.Permission{models.PermViewActivities, models.PermManageOwnSubscription},
			wantLen: 3,
		},
		{
			name:    "unknown role fails closed",
			role:    models.Role("superuser"),
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSet(Default(tt.role)...)
			assert.Len(t, got, tt.wantLen)
			for _, p := range tt.has {
				assert.True(t, got.Has(p), "expected %s", p)
			}
			for _, p := range tt.hasNot {
				assert.False(t, got.Has(p), "unexpected %s", p)
			}
		})
	}
}

func TestDefault_ReturnsCopy(t *testing.T) {
	perms := Default(models.RoleFreeUser)
	perms[0] = models.PermManageUsers

	assert.NotContains(t, Default(models.RoleFreeUser), models.PermManageUsers)
}

func TestEffective_AdminIgnoresStoredPermissions(t *testing.T) {
	admin := &models.UserProfile{Role: models.RoleAdmin, Permissions: nil}
	assert.True(t, Effective(admin).HasAll(models.AllPermissions...))

	free := &models.UserProfile{Role: models.RoleFreeUser, Permissions: []models.Permission{models.PermViewBlog}}
	assert.False(t, Effective(free).Has(models.PermViewProfile))
	assert.Empty(t, Effective(nil))
}

func TestHasPremiumAccess(t *testing.T) {
	assert.True(t, HasPremiumAccess(NewSet(Default(models.RoleSubscriber)...)))
	assert.False(t, HasPremiumAccess(NewSet(Default(models.RoleTrialUser)...)))
	assert.True(t, HasPremiumAccess(NewSet(models.PermViewPremiumBlog)))
}

func TestParse(t *testing.T) {
	got, ok := Parse([]string{"view_blog", "fly", "download_pdf"})
	assert.False(t, ok)
	assert.Equal(t, []models.Permission{models.PermViewBlog, models.PermDownloadPDF}, got)

	got, ok = Parse(nil)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestSet_Slice_CatalogOrder(t *testing.T) {
	s := NewSet(models.PermViewAnalytics, models.PermViewActivities)
	assert.Equal(t, []models.Permission{models.PermViewActivities, models.PermViewAnalytics}, s.Slice())
}
