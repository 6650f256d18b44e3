package middlewarectx

import (
	"context"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/response"
	guardservice "github.com/magabrotheeeer/entitlements/internal/services/guard"
)

// Activator принимает решение о доступе к защищённой операции.
type Activator interface {
	CanActivate(ctx context.Context, uid string, req guardservice.Requirement, requestedPath string) guardservice.Decision
}

// Guard пропускает запрос, только если Access Guard разрешил операцию.
// Отказ без идентичности даёт 401, остальные отказы 403. В теле ответа
// указаны причина и адрес следующего шага.
func Guard(guard Activator, req guardservice.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := guard.CanActivate(r.Context(), UIDFrom(r.Context()), req, r.URL.RequestURI())
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			status := http.StatusForbidden
			if decision.Reason == guardservice.ReasonNotAuthenticated {
				status = http.StatusUnauthorized
			}
			w.WriteHeader(status)
			render.JSON(w, r, response.Denied(decision.Reason, decision.RedirectTo))
		})
	}
}
