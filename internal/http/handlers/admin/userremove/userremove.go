// Package userremove реализует удаление учётной записи администратором.
package userremove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы на удаление пользователя администратором.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику удаления пользователя.
type Service interface {
	DeleteUser(ctx context.Context, actorUID, targetUID string) error
}

// New создает новый Handler для удаления пользователя.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удаление пользователя
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Нельзя удалить себя этим путём"
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{uid} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userremove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	target := chi.URLParam(r, "uid")
	if err := h.service.DeleteUser(r.Context(), middlewarectx.UIDFrom(r.Context()), target); err != nil {
		log.Error("failed to delete user", slog.String("target", target), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user deleted", slog.String("target", target))
	render.JSON(w, r, response.StatusOKWithData(map[string]string{
		"deleted": target,
	}))
}
