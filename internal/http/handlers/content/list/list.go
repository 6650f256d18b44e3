// Package list возвращает материалы, видимые вызывающему, вместе со
// счётчиками до и после фильтрации. Анонимный вызов видит только публичные
// непремиальные материалы.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/entitlement"
	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Handler обрабатывает HTTP-запросы на получение списка материалов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service отдаёт отфильтрованный список материалов.
type Service interface {
	List(ctx context.Context, uid string, kind models.ContentKind) (entitlement.FilterResult, error)
}

// New создает новый Handler для списка материалов.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список материалов
// @Tags Content
// @Produce json
// @Param kind query string false "activity или blog"
// @Success 200 {object} response.Response{data=entitlement.FilterResult}
// @Failure 400 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /content [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	kind := models.ContentKind(r.URL.Query().Get("kind"))
	if kind != "" && kind != models.KindActivity && kind != models.KindBlog {
		log.Error("unknown content kind", slog.String("kind", string(kind)))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("kind must be one of [activity blog]"))
		return
	}

	res, err := h.service.List(r.Context(), middlewarectx.UIDFrom(r.Context()), kind)
	if err != nil {
		log.Error("failed to list content", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
