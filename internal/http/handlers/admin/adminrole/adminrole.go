// Package adminrole назначает и снимает роль администратора.
//
// Один и тот же обработчик обслуживает POST (назначение) и DELETE (снятие),
// направление задаётся при создании. После снятия роль пересчитывается по
// состоянию подписки пользователя.
package adminrole

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
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Handler обрабатывает HTTP-запросы на назначение и снятие роли администратора.
type Handler struct {
	log     *slog.Logger
	service Service
	remove  bool
}

// Service описывает бизнес-логику смены роли администратора.
type Service interface {
	AssignAdmin(ctx context.Context, actorUID, targetUID string) (*models.UserProfile, error)
	RemoveAdmin(ctx context.Context, actorUID, targetUID string) (*models.UserProfile, error)
}

// New создаёт обработчик. При remove=true он снимает роль, иначе назначает.
func New(log *slog.Logger, service Service, remove bool) *Handler {
	return &Handler{
		log:     log,
		service: service,
		remove:  remove,
	}
}

// ServeHTTP godoc
// @Summary Назначение или снятие роли администратора
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Success 200 {object} response.Response{data=models.UserProfile}
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{uid}/admin [post]
// @Router /admin/users/{uid}/admin [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.adminrole"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Bool("remove", h.remove),
	)

	actor := middlewarectx.UIDFrom(r.Context())
	target := chi.URLParam(r, "uid")

	var (
		profile *models.UserProfile
		err     error
	)
	if h.remove {
		profile, err = h.service.RemoveAdmin(r.Context(), actor, target)
	} else {
		profile, err = h.service.AssignAdmin(r.Context(), actor, target)
	}
	if err != nil {
		log.Error("failed to change admin role", slog.String("target", target), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("admin role changed", slog.String("target", target), slog.String("role", string(profile.Role)))
	render.JSON(w, r, response.StatusOKWithData(profile))
}
