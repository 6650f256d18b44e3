// Package read возвращает один материал, если он виден вызывающему.
package read

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
	guardservice "github.com/magabrotheeeer/entitlements/internal/services/guard"
)

// Handler обрабатывает HTTP-запросы на получение материала по идентификатору.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику чтения материала.
type Service interface {
	Get(ctx context.Context, uid, id string) (*models.ContentItem, error)
}

// New создает новый Handler для чтения материала.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Материал по идентификатору
// @Tags Content
// @Produce json
// @Param id path string true "ID материала"
// @Success 200 {object} response.Response{data=models.ContentItem}
// @Failure 401 {object} response.ErrorResponse "Нужен вход"
// @Failure 403 {object} response.ErrorResponse "Нужна подписка"
// @Failure 404 {object} response.ErrorResponse
// @Router /content/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	uid := middlewarectx.UIDFrom(r.Context())

	item, err := h.service.Get(r.Context(), uid, id)
	if err != nil {
		log.Info("content not served", slog.String("id", id), sl.Err(err))
		status, resp := response.StatusFor(err)
		if status == http.StatusForbidden {
			// закрытый материал: аноним идёт на вход, пользователь на оформление подписки
			resp.Error = guardservice.ReasonSubscriptionRequired
			resp.Redirect = guardservice.SubscribePath
			if uid == "" {
				status = http.StatusUnauthorized
				resp.Error = guardservice.ReasonNotAuthenticated
				resp.Redirect = guardservice.LoginRedirect(r.URL.RequestURI())
			}
		}
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(item))
}
