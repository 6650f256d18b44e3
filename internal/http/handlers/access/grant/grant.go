// Package grant реализует ручную выдачу доступа к файлу администратором.
// Предыдущая активная запись для той же пары пользователь/файл отзывается.
package grant

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Handler обрабатывает HTTP-запросы на ручную выдачу доступа к файлу.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику выдачи доступа.
type Service interface {
	GrantAdminAccess(ctx context.Context, adminUID, userID, fileID, notes string,
		expiresAt *time.Time) (*models.UserAccess, error)
}

// New создает новый Handler для выдачи доступа.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выдача доступа к файлу
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.DummyAccessGrant true "Пользователь, файл и срок действия"
// @Success 201 {object} response.Response{data=models.UserAccess}
// @Failure 400 {object} response.ErrorResponse "Срок действия уже истёк"
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/access [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.grant"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyAccessGrant
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

	access, err := h.service.GrantAdminAccess(r.Context(), middlewarectx.UIDFrom(r.Context()),
		req.UserID, req.FileID, req.Notes, req.ExpiresAt)
	if err != nil {
		log.Error("failed to grant access", slog.String("user_id", req.UserID),
			slog.String("file_id", req.FileID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("access granted", slog.String("user_id", req.UserID), slog.String("file_id", req.FileID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(access))
}
