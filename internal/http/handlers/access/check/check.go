// Package check отвечает, есть ли у вызывающего пользователя действующий доступ к файлу.
package check

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

// Handler обрабатывает HTTP-запросы на проверку доступа к одному файлу.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику проверки доступа.
type Service interface {
	HasAccess(ctx context.Context, userID, fileID string) (bool, error)
}

// New создает новый Handler для проверки доступа.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проверка доступа к файлу
// @Tags Access
// @Produce json
// @Security BearerAuth
// @Param fileID path string true "ID файла"
// @Success 200 {object} response.Response
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно, можно повторить"
// @Router /files/{fileID}/access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.check"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := middlewarectx.UIDFrom(r.Context())
	fileID := chi.URLParam(r, "fileID")

	ok, err := h.service.HasAccess(r.Context(), uid, fileID)
	if err != nil {
		log.Error("failed to check access", slog.String("file_id", fileID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"file_id":    fileID,
		"has_access": ok,
	}))
}
