// Package verify реализует подтверждение заявки администратором.
//
// Подтверждение и выдача доступа к файлу выполняются одной транзакцией:
// клиент, увидевший статус verified, увидит и активный доступ. Повторное
// подтверждение той же заявки возвращает 409.
package verify

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

// Handler обрабатывает HTTP-запросы на подтверждение заявки на покупку.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику подтверждения заявки.
type Service interface {
	Verify(ctx context.Context, adminUID, purchaseID, notes string) (*models.Purchase, *models.UserAccess, error)
}

// New создает новый Handler для подтверждения заявки.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подтверждение заявки на покупку
// @Tags Purchases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Param request body models.DummyPurchaseDecision false "Комментарий администратора"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Нужна роль администратора"
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Заявка уже обработана"
// @Router /purchases/{id}/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.verify"

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

	adminUID := middlewarectx.UIDFrom(r.Context())
	purchaseID := chi.URLParam(r, "id")

	purchase, access, err := h.service.Verify(r.Context(), adminUID, purchaseID, req.Notes)
	if err != nil {
		log.Error("failed to verify purchase", slog.String("purchase_id", purchaseID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("purchase verified", slog.String("purchase_id", purchaseID), slog.String("access_id", access.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"purchase": purchase,
		"access":   access,
	}))
}
