// Package status возвращает текущее состояние подписки пользователя.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	subservice "github.com/magabrotheeeer/entitlements/internal/services/subscription"
)

// Handler обрабатывает HTTP-запросы на получение состояния подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику чтения состояния подписки.
type Service interface {
	Status(ctx context.Context, uid string) (*subservice.Status, error)
}

// New создает новый Handler для чтения состояния подписки.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Состояние подписки
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=subservice.Status}
// @Failure 503 {object} response.ErrorResponse
// @Router /subscriptions/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.status"

	uid := middlewarectx.UIDFrom(r.Context())
	st, err := h.service.Status(r.Context(), uid)
	if err != nil {
		h.log.Error("failed to get subscription status", sl.Op(op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("uid", uid), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(st))
}
