// Package userupdate реализует смену роли и разрешений пользователя администратором.
//
// Если список разрешений не передан, пользователь получает набор роли по
// умолчанию. Неизвестные имена разрешений отбрасываются сервисом. Изменить
// собственную учётную запись этим путём нельзя.
package userupdate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Handler обрабатывает HTTP-запросы на смену роли и разрешений пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику изменения роли пользователя.
type Service interface {
	UpdateUser(ctx context.Context, actorUID, targetUID string, role models.Role,
		rawPerms []string) (*models.UserProfile, error)
}

// New создает новый Handler для изменения роли пользователя.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменение роли пользователя
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Param request body models.DummyUserUpdate true "Роль и разрешения"
// @Success 200 {object} response.Response{data=models.UserProfile}
// @Failure 403 {object} response.ErrorResponse "Нельзя менять собственную роль"
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Профиль изменён параллельно"
// @Router /admin/users/{uid} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userupdate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyUserUpdate
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	target := chi.URLParam(r, "uid")
	profile, err := h.service.UpdateUser(r.Context(), middlewarectx.UIDFrom(r.Context()),
		target, models.Role(req.Role), req.Permissions)
	if err != nil {
		log.Error("failed to update user", slog.String("target", target), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user updated", slog.String("target", target), slog.String("role", string(profile.Role)))
	render.JSON(w, r, response.StatusOKWithData(profile))
}
