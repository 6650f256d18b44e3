// Package models содержит доменные структуры движка доступа: роли, разрешения,
// профили пользователей, подписки, контент, покупки и выданные доступы к файлам.
package models

// Role — грубая классификация пользователя, определяющая набор разрешений по умолчанию.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSubscriber Role = "subscriber"
	RoleTrialUser  Role = "trial_user"
	RoleFreeUser   Role = "free_user"
)

// Valid сообщает, входит ли роль в закрытое перечисление.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSubscriber, RoleTrialUser, RoleFreeUser:
		return true
	}
	return false
}

// Permission — именованная возможность пользователя.
type Permission string

const (
	PermViewActivities        Permission = "view_activities"
	PermViewPremiumActivities Permission = "view_premium_activities"
	PermViewBlog              Permission = "view_blog"
	PermViewPremiumBlog       Permission = "view_premium_blog"
	PermDownloadPDF           Permission = "download_pdf"
	PermDownloadVideo         Permission = "download_video"
	PermViewProfile           Permission = "view_profile"
	PermEditProfile           Permission = "edit_profile"
	PermManageOwnSubscription Permission = "manage_own_subscription"
	PermManageUsers           Permission = "manage_users"
	PermManageContent         Permission = "manage_content"
	PermManageSubscriptions   Permission = "manage_subscriptions"
	PermManagePurchases       Permission = "manage_purchases"
	PermViewAnalytics         Permission = "view_analytics"
)

// AllPermissions перечисляет весь каталог в стабильном порядке.
var AllPermissions = []Permission{
	PermViewActivities,
	PermViewPremiumActivities,
	PermViewBlog,
	PermViewPremiumBlog,
	PermDownloadPDF,
	PermDownloadVideo,
	PermViewProfile,
	PermEditProfile,
	PermManageOwnSubscription,
	PermManageUsers,
	PermManageContent,
	PermManageSubscriptions,
	PermManagePurchases,
	PermViewAnalytics,
}

// Valid сообщает, известно ли разрешение каталогу.
func (p Permission) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}
