// Package create регистрирует заявку пользователя на покупку файла.
// Оплата проверяется администратором вручную, поэтому заявка создаётся в
// статусе pending и доступа сама по себе не даёт.
package create

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

// Handler обрабатывает HTTP-запросы на создание заявки на покупку.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику регистрации заявки.
type Service interface {
	CreatePurchase(ctx context.Context, uid, fileID string, amount int64, currency models.Currency,
		proof string) (*models.Purchase, error)
}

// New создает новый Handler для создания заявки.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Заявка на покупку файла
// @Tags Purchases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.DummyPurchase true "Файл, сумма и подтверждение оплаты"
// @Success 201 {object} response.Response{data=models.Purchase}
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /purchases [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPurchase
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	log.Info("request body decoded", slog.String("file_id", req.FileID), slog.Int64("amount", req.Amount))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	uid := middlewarectx.UIDFrom(r.Context())
	p, err := h.service.CreatePurchase(r.Context(), uid, req.FileID, req.Amount,
		models.Currency(req.Currency), req.PaymentProof)
	if err != nil {
		log.Error("failed to create purchase", slog.String("uid", uid), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("purchase created", slog.String("purchase_id", p.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(p))
}
