package models

import "time"

// SubscriptionEvent публикуется при каждом переходе подписки.
type SubscriptionEvent struct {
	UserID  string             `json:"user_id"`
	Status  SubscriptionStatus `json:"status"`
	Type    SubscriptionType   `json:"type"`
	EndDate *time.Time         `json:"end_date,omitempty"`
	Role    Role               `json:"role"`
}

// PurchaseEvent публикуется при подтверждении или отклонении заявки.
type PurchaseEvent struct {
	PurchaseID string         `json:"purchase_id"`
	UserID     string         `json:"user_id"`
	FileID     string         `json:"file_id"`
	Status     PurchaseStatus `json:"status"`
	DecidedBy  string         `json:"decided_by"`
}

// AccessEvent публикуется при выдаче и отзыве доступа к файлу.
type AccessEvent struct {
	UserID     string `json:"user_id"`
	FileID     string `json:"file_id"`
	PurchaseID string `json:"purchase_id,omitempty"`
	Actor      string `json:"actor"`
}
