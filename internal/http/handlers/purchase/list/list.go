// Package list возвращает заявки на покупку. Пользователь видит только свои
// заявки, администратор видит все и может фильтровать по статусу и пользователю.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
	"github.com/magabrotheeeer/entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Handler обрабатывает HTTP-запросы на получение списка заявок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику чтения заявок.
type Service interface {
	ListPurchases(ctx context.Context, callerUID string, f models.PurchaseFilter) ([]*models.Purchase, error)
}

// New создает новый Handler для списка заявок.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список заявок на покупку
// @Tags Purchases
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, verified или rejected"
// @Param user_id query string false "Только для администратора"
// @Param limit query int false "Лимит"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Router /purchases [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	status := models.PurchaseStatus(q.Get("status"))
	switch status {
	case "", models.PurchasePending, models.PurchaseVerified, models.PurchaseRejected:
	default:
		log.Error("unknown purchase status", slog.String("status", string(status)))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("status must be one of [pending verified rejected]"))
		return
	}

	uid := middlewarectx.UIDFrom(r.Context())
	purchases, err := h.service.ListPurchases(r.Context(), uid, models.PurchaseFilter{
		UserID: q.Get("user_id"),
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Error("failed to list purchases", slog.String("uid", uid), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"purchases": purchases,
		"count":     len(purchases),
	}))
}
