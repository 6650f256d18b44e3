// Package profile возвращает профиль текущего пользователя вместе с
// эффективными разрешениями и признаком активной подписки.
package profile

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
	"github.com/magabrotheeeer/entitlements/internal/permissions"
	"github.com/magabrotheeeer/entitlements/internal/subscription"
)

// Service загружает профиль пользователя.
type Service interface {
	Load(ctx context.Context, uid string) (*models.UserProfile, error)
}

// View — представление профиля для клиента.
type View struct {
	Profile            *models.UserProfile `json:"profile"`
	Permissions        []models.Permission `json:"effective_permissions"`
	SubscriptionActive bool                `json:"subscription_active"`
	Premium            bool                `json:"premium"`
}

// Handler обрабатывает HTTP-запросы на получение профиля текущего пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
	now     func() time.Time
}

// New создает новый Handler для чтения профиля.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ServeHTTP godoc
// @Summary Профиль текущего пользователя
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=View}
// @Failure 401 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.me.profile"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := middlewarectx.UIDFrom(r.Context())
	p, err := h.service.Load(r.Context(), uid)
	if err != nil {
		log.Error("failed to load profile", slog.String("uid", uid), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	effective := permissions.Effective(p)
	render.JSON(w, r, response.StatusOKWithData(View{
		Profile:            p,
		Permissions:        effective.Slice(),
		SubscriptionActive: subscription.IsActive(p.Subscription, h.now()),
		Premium:            permissions.HasPremiumAccess(effective),
	}))
}
