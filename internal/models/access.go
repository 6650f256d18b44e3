package models

import (
	"fmt"
	"strings"
	"time"
)

// GrantedBySystem — значение GrantedBy для доступов, выданных по подтверждённой покупке.
const GrantedBySystem = "system"

const adminGrantPrefix = "admin-granted-"

// AdminGrantMarker формирует синтетический PurchaseID для доступа, выданного без покупки.
func AdminGrantMarker(at time.Time) string {
	return fmt.Sprintf("%s%d", adminGrantPrefix, at.UnixMilli())
}

// IsAdminGrant сообщает, выдан ли доступ администратором вручную.
func IsAdminGrant(purchaseID string) bool {
	return strings.HasPrefix(purchaseID, adminGrantPrefix)
}

// UserAccess — запись о доступе пользователя к файлу. Для пары (UserID, FileID)
// одновременно активна не более одной записи; записи не удаляются физически.
type UserAccess struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	FileID     string     `json:"file_id"`
	GrantedAt  time.Time  `json:"granted_at"`
	GrantedBy  string     `json:"granted_by"`
	IsActive   bool       `json:"is_active"`
	PurchaseID string     `json:"purchase_id"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// Usable сообщает, даёт ли запись доступ в момент now.
func (a *UserAccess) Usable(now time.Time) bool {
	if a == nil || !a.IsActive {
		return false
	}
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}

// DummyAccessGrant — ручная выдача доступа администратором.
type DummyAccessGrant struct {
	UserID    string     `json:"user_id" validate:"required"`
	FileID    string     `json:"file_id" validate:"required"`
	Notes     string     `json:"notes,omitempty" validate:"omitempty,max=1024"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// DummyAccessRevoke — отзыв доступа администратором.
type DummyAccessRevoke struct {
	UserID string `json:"user_id" validate:"required"`
	FileID string `json:"file_id" validate:"required"`
}

// DummyAccessBatch — пакетная проверка доступа к файлам.
type DummyAccessBatch struct {
	FileIDs []string `json:"file_ids" validate:"required,min=1,max=500"`
}
