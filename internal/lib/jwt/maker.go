// Package jwt реализует выпуск и разбор JWT, которыми провайдер идентификации
// подтверждает личность вызывающего.
//
// Токен несёт только идентичность (uid и email). Роль и разрешения в токен
// не кладутся: движок всегда берёт их из хранилища.
package jwt

import (
	"time"
)

// Maker описывает выпуск и разбор токенов идентичности.
type Maker interface {
	// GenerateToken выпускает токен для uid и email.
	GenerateToken(uid, email string) (string, error)
	// ParseToken проверяет подпись и срок действия и возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker на симметричном ключе HS256.
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
