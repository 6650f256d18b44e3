package models

import "time"

// PurchaseStatus — состояние заявки на покупку.
type PurchaseStatus string

const (
	PurchasePending  PurchaseStatus = "pending"
	PurchaseVerified PurchaseStatus = "verified"
	PurchaseRejected PurchaseStatus = "rejected"
)

// Currency — валюта оплаты.
type Currency string

const (
	CurrencyRSD Currency = "RSD"
	CurrencyEUR Currency = "EUR"
)

// Valid сообщает, поддерживается ли валюта.
func (c Currency) Valid() bool {
	return c == CurrencyRSD || c == CurrencyEUR
}

// Purchase — заявка на покупку файла. Переходы только PENDING → VERIFIED | REJECTED,
// запись хранится бессрочно как журнал аудита.
type Purchase struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	FileID       string         `json:"file_id"`
	Amount       int64          `json:"amount"`
	Currency     Currency       `json:"currency"`
	Status       PurchaseStatus `json:"status"`
	PaymentProof *string        `json:"payment_proof,omitempty"`
	AdminNotes   *string        `json:"admin_notes,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	VerifiedAt   *time.Time     `json:"verified_at,omitempty"`
	VerifiedBy   *string        `json:"verified_by,omitempty"`
}

// DummyPurchase принимает заявку на покупку из JSON-запроса.
type DummyPurchase struct {
	FileID       string `json:"file_id" validate:"required"`
	Amount       int64  `json:"amount" validate:"required,gt=0"`
	Currency     string `json:"currency" validate:"required,oneof=RSD EUR"`
	PaymentProof string `json:"payment_proof,omitempty"`
}

// DummyPurchaseDecision — комментарий администратора при подтверждении или отклонении.
type DummyPurchaseDecision struct {
	Notes string `json:"notes,omitempty" validate:"omitempty,max=1024"`
}

// PurchaseFilter ограничивает выборку заявок.
type PurchaseFilter struct {
	UserID string
	Status PurchaseStatus
	Limit  int
	Offset int
}
