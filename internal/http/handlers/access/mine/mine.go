// Package mine возвращает записи о доступе вызывающего пользователя.
package mine

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Handler обрабатывает HTTP-запросы на получение собственных доступов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику, необходимую для чтения доступов.
type Service interface {
	ListUserAccess(ctx context.Context, uid string) ([]*models.UserAccess, error)
}

// New создает новый Handler для чтения доступов.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// accessView дополняет запись признаком ручной выдачи администратором.
type accessView struct {
	*models.UserAccess
	AdminGranted bool `json:"admin_granted"`
}

// ServeHTTP godoc
// @Summary Мои доступы к файлам
// @Tags Access
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /files/access/mine [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.mine"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := middlewarectx.UIDFrom(r.Context())
	records, err := h.service.ListUserAccess(r.Context(), uid)
	if err != nil {
		log.Error("failed to list access records", slog.String("uid", uid), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	views := make([]accessView, 0, len(records))
	for _, a := range records {
		views = append(views, accessView{UserAccess: a, AdminGranted: models.IsAdminGrant(a.PurchaseID)})
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"access": views,
		"count":  len(views),
	}))
}
