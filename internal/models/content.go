package models

// Visibility — минимальный уровень привилегий для просмотра материала.
type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilitySubscriber Visibility = "subscriber"
	VisibilityAdmin      Visibility = "admin"
)

// ContentKind различает активности и записи блога.
type ContentKind string

const (
	KindActivity ContentKind = "activity"
	KindBlog     ContentKind = "blog"
)

// ContentItem — материал, которым владеет контент-сервис; движок его только читает.
// IsPremium переносится как есть и сам по себе доступ не ограничивает,
// кроме случая анонимного пользователя.
type ContentItem struct {
	ID         string      `json:"id"`
	Kind       ContentKind `json:"kind"`
	Title      string      `json:"title"`
	Category   string      `json:"category,omitempty"`
	Visibility Visibility  `json:"visibility,omitempty"`
	IsPremium  bool        `json:"is_premium"`
}
