// Package usercreate реализует создание учётной записи администратором.
package usercreate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Handler обрабатывает HTTP-запросы на создание учётной записи администратором.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику создания учётной записи.
type Service interface {
	CreateUser(ctx context.Context, actorUID, email string, role models.Role,
		rawPassword string) (*models.UserProfile, error)
}

// New создает новый Handler для создания учётной записи.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создание пользователя
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.DummyUser true "Email, роль и пароль"
// @Success 201 {object} response.Response{data=models.UserProfile}
// @Failure 400 {object} response.ErrorResponse "Email уже занят"
// @Failure 403 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/users [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.usercreate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyUser
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

	profile, err := h.service.CreateUser(r.Context(), middlewarectx.UIDFrom(r.Context()),
		req.Email, models.Role(req.Role), req.Password)
	if err != nil {
		log.Error("failed to create user", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user created", slog.String("uid", profile.UID), slog.String("role", string(profile.Role)))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(profile))
}
