// Package cancel отменяет подписку. Роль и разрешения понижаются сразу,
// не дожидаясь окончания оплаченного периода.
package cancel

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Handler обрабатывает HTTP-запросы на отмену подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику отмены подписки.
type Service interface {
	Cancel(ctx context.Context, uid string) (*models.UserProfile, error)
}

// New создает новый Handler для отмены подписки.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отмена подписки
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Подписки нет"
// @Failure 409 {object} response.ErrorResponse "Переход недопустим"
// @Router /subscriptions/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := middlewarectx.UIDFrom(r.Context())
	p, err := h.service.Cancel(r.Context(), uid)
	if err != nil {
		log.Error("failed to cancel subscription", slog.String("uid", uid), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("subscription cancelled", slog.String("uid", uid))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"role":         p.Role,
		"subscription": p.Subscription,
	}))
}
