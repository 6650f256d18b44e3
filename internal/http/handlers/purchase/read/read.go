// Package read возвращает одну заявку на покупку.
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
)

// Handler обрабатывает HTTP-запросы на чтение заявки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику, необходимую для чтения заявки.
type Service interface {
	GetPurchase(ctx context.Context, callerUID, purchaseID string) (*models.Purchase, error)
}

// New создает новый Handler для чтения заявки.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Заявка на покупку
// @Description Владелец видит свою заявку, администратор любую.
// @Tags Purchases
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Success 200 {object} response.Response{data=models.Purchase}
// @Failure 404 {object} response.ErrorResponse
// @Router /purchases/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	purchaseID := chi.URLParam(r, "id")
	purchase, err := h.service.GetPurchase(r.Context(), middlewarectx.UIDFrom(r.Context()), purchaseID)
	if err != nil {
		log.Error("failed to read purchase", slog.String("purchase_id", purchaseID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(purchase))
}
