package models

import "time"

// SubscriptionStatus — состояние подписки.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusExpired   SubscriptionStatus = "expired"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusPending   SubscriptionStatus = "pending"
	StatusTrial     SubscriptionStatus = "trial"
)

// SubscriptionType — тарифный период подписки.
type SubscriptionType string

const (
	TypeMonthly SubscriptionType = "monthly"
	TypeYearly  SubscriptionType = "yearly"
	TypeTrial   SubscriptionType = "trial"
)

// Valid сообщает, поддерживается ли тип подписки.
func (t SubscriptionType) Valid() bool {
	switch t {
	case TypeMonthly, TypeYearly, TypeTrial:
		return true
	}
	return false
}

// Subscription описывает текущую подписку пользователя.
// EndDate может быть nil только у только что созданной PENDING-подписки.
// LastPaymentDate и NextPaymentDate носят справочный характер и не влияют на доступ.
type Subscription struct {
	Status          SubscriptionStatus `json:"status"`
	Type            SubscriptionType   `json:"type"`
	StartDate       time.Time          `json:"start_date"`
	EndDate         *time.Time         `json:"end_date,omitempty"`
	AutoRenew       bool               `json:"auto_renew"`
	LastPaymentDate *time.Time         `json:"last_payment_date,omitempty"`
	NextPaymentDate *time.Time         `json:"next_payment_date,omitempty"`
}

// DummySubscription принимает тип подписки из JSON-запроса.
type DummySubscription struct {
	Type string `json:"type" validate:"required,oneof=monthly yearly trial"`
}
