// Package remove реализует удаление собственной учётной записи с повторной
// проверкой пароля.
package remove

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

// Handler обрабатывает HTTP-запросы на удаление собственной учётной записи.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service удаляет учётную запись владельца.
type Service interface {
	DeleteSelf(ctx context.Context, uid, password string) error
}

// New создает новый Handler для удаления собственной учётной записи.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Удаление собственной учётной записи
// @Tags Me
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.DummySelfDelete true "Текущий пароль"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Неверный пароль"
// @Router /me [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.me.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySelfDelete
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

	uid := middlewarectx.UIDFrom(r.Context())
	if err := h.service.DeleteSelf(r.Context(), uid, req.Password); err != nil {
		log.Error("failed to delete account", slog.String("uid", uid), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("account deleted", slog.String("uid", uid))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted": uid,
	}))
}
