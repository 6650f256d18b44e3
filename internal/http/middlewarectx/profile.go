package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// ProfileEnsurer создаёт профиль при первом обращении пользователя.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, uid, email string) (*models.UserProfile, error)
}

// EnsureProfile гарантирует наличие профиля у аутентифицированного пользователя.
// Анонимные запросы пропускаются без изменений.
func EnsureProfile(log *slog.Logger, users ProfileEnsurer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.EnsureProfile"

			uid := UIDFrom(r.Context())
			if uid == "" {
				next.ServeHTTP(w, r)
				return
			}
			if _, err := users.EnsureProfile(r.Context(), uid, EmailFrom(r.Context())); err != nil {
				log.Error("failed to ensure profile", sl.Op(op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("uid", uid), sl.Err(err))
				response.RenderError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
