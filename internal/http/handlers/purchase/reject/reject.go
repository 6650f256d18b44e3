// Package reject реализует отклонение заявки администратором. Доступ к файлу
// при этом не выдаётся и не отзывается.
package reject

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Handler обрабатывает HTTP-запросы на отклонение заявки на покупку.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику отклонения заявки.
type Service interface {
	Reject(ctx context.Context, adminUID, purchaseID, reason string) (*models.Purchase, error)
}

// New создает новый Handler для отклонения заявки.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отклонение заявки на покупку
// @Tags Purchases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Param request body models.DummyPurchaseDecision false "Причина отказа"
// @Success 200 {object} response.Response{data=models.Purchase}
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Заявка уже обработана"
// @Router /purchases/{id}/reject [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.reject"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPurchaseDecision
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
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

	purchaseID := chi.URLParam(r, "id")
	purchase, err := h.service.Reject(r.Context(), middlewarectx.UIDFrom(r.Context()), purchaseID, req.Notes)
	if err != nil {
		log.Error("failed to reject purchase", slog.String("purchase_id", purchaseID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("purchase rejected", slog.String("purchase_id", purchaseID))
	render.JSON(w, r, response.StatusOKWithData(purchase))
}
