// Package revoke реализует отзыв доступа к файлу администратором.
package revoke

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

// Handler обрабатывает HTTP-запросы на отзыв доступа к файлу.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику отзыва доступа.
type Service interface {
	RevokeAccess(ctx context.Context, adminUID, userID, fileID string) (*models.UserAccess, error)
}

// New создает новый Handler для отзыва доступа.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отзыв доступа к файлу
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.DummyAccessRevoke true "Пользователь и файл"
// @Success 200 {object} response.Response{data=models.UserAccess}
// @Failure 404 {object} response.ErrorResponse "Активного доступа нет"
// @Router /admin/access [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.revoke"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyAccessRevoke
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

	access, err := h.service.RevokeAccess(r.Context(), middlewarectx.UIDFrom(r.Context()), req.UserID, req.FileID)
	if err != nil {
		log.Error("failed to revoke access", slog.String("user_id", req.UserID),
			slog.String("file_id", req.FileID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("access revoked", slog.String("user_id", req.UserID), slog.String("file_id", req.FileID))
	render.JSON(w, r, response.StatusOKWithData(access))
}
