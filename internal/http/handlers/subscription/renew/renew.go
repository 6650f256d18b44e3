// Package renew продлевает платную подписку на один период, считая от
// более поздней из дат: текущей или даты окончания.
package renew

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

// Handler обрабатывает HTTP-запросы на продление подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику продления подписки.
type Service interface {
	Renew(ctx context.Context, uid string) (*models.UserProfile, error)
}

// New создает новый Handler для продления подписки.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Продление подписки
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Подписки нет"
// @Failure 409 {object} response.ErrorResponse "Переход недопустим"
// @Router /subscriptions/renew [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.renew"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := middlewarectx.UIDFrom(r.Context())
	p, err := h.service.Renew(r.Context(), uid)
	if err != nil {
		log.Error("failed to renew subscription", slog.String("uid", uid), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("subscription renewed", slog.String("uid", uid))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"role":         p.Role,
		"subscription": p.Subscription,
	}))
}
