package models

import "time"

// UserProfile — профиль пользователя, по которому принимаются решения о доступе.
// Для роли admin хранимый набор Permissions игнорируется: администратор всегда
// обладает полным каталогом.
type UserProfile struct {
	UID          string        `json:"uid"`
	Email        string        `json:"email"`
	DisplayName  string        `json:"display_name"`
	PasswordHash string        `json:"-"`
	Role         Role          `json:"role"`
	Permissions  []Permission  `json:"permissions"`
	Subscription *Subscription `json:"subscription,omitempty"`
	Version      int64         `json:"version"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsAdmin сообщает, является ли пользователь администратором.
func (p *UserProfile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// DummyUser используется для приёма данных о пользователе из административного API.
type DummyUser struct {
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=admin subscriber trial_user free_user"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// DummyUserUpdate — изменение роли и (опционально) явного набора разрешений.
type DummyUserUpdate struct {
	Role        string   `json:"role" validate:"required,oneof=admin subscriber trial_user free_user"`
	Permissions []string `json:"permissions,omitempty"`
}

// DummyProfileUpdate — самостоятельное редактирование профиля.
type DummyProfileUpdate struct {
	DisplayName string `json:"display_name" validate:"required,max=128"`
}

// DummyPasswordChange — смена пароля текущим пользователем.
type DummyPasswordChange struct {
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// DummySelfDelete — подтверждение удаления собственной учётной записи паролем.
type DummySelfDelete struct {
	Password string `json:"password" validate:"required"`
}
