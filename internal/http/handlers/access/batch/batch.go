// Package batch проверяет доступ вызывающего пользователя сразу к нескольким файлам.
//
// Ответ содержит ключ для каждого запрошенного файла. Если хранилище не
// ответило, все файлы помечаются как недоступные, запрос при этом не падает.
package batch

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

// Handler обрабатывает HTTP-запросы на пакетную проверку доступа к файлам.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику пакетной проверки доступа.
type Service interface {
	HasMultipleAccess(ctx context.Context, userID string, fileIDs []string) map[string]bool
}

// New создает новый Handler для пакетной проверки.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Пакетная проверка доступа к файлам
// @Tags Access
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.DummyAccessBatch true "Список файлов"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /files/access [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.batch"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyAccessBatch
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

	access := h.service.HasMultipleAccess(r.Context(), middlewarectx.UIDFrom(r.Context()), req.FileIDs)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"access": access,
	}))
}
