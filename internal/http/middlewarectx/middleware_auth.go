// Package middlewarectx содержит HTTP middleware движка: проверку токена
// идентичности, создание профиля при первом входе, Access Guard и
// ограничение частоты запросов.
//
// JWTMiddleware проверяет токен из заголовка Authorization и кладёт uid и email
// в контекст запроса. Роль в контекст не кладётся: её всегда читают из хранилища.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/jwt"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID — ключ идентификатора пользователя в контексте.
	UserUID Key = "user_uid"
	// Email — ключ email пользователя в контексте.
	Email Key = "email"
)

// TokenParser проверяет токен идентичности.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// UIDFrom возвращает uid из контекста или пустую строку для анонимного запроса.
func UIDFrom(ctx context.Context) string {
	uid, _ := ctx.Value(UserUID).(string)
	return uid
}

// EmailFrom возвращает email из контекста.
func EmailFrom(ctx context.Context) string {
	email, _ := ctx.Value(Email).(string)
	return email
}

// WithIdentity кладёт идентичность в контекст.
func WithIdentity(ctx context.Context, uid, email string) context.Context {
	ctx = context.WithValue(ctx, UserUID, uid)
	return context.WithValue(ctx, Email, email)
}

// JWTMiddleware требует валидный Bearer-токен. Иначе отвечает 401.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return authMiddleware(parser, log, false)
}

// OptionalJWT пропускает запросы без заголовка Authorization как анонимные,
// но отклоняет присланный невалидный токен.
func OptionalJWT(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return authMiddleware(parser, log, true)
}

func authMiddleware(parser TokenParser, log *slog.Logger, optional bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" && optional {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.UID, claims.Email)))
		})
	}
}
