// Package locked сообщает, закрыта ли категория материалов для вызывающего.
// Используется интерфейсом для отрисовки замков на премиальных категориях.
package locked

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlements/internal/http/response"
)

// Handler обрабатывает HTTP-запросы на проверку закрытости категории.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику проверки категории.
type Service interface {
	CategoryLocked(ctx context.Context, uid, category string) bool
}

// New создает новый Handler для проверки категории.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Закрыта ли категория
// @Tags Content
// @Produce json
// @Param category path string true "Категория"
// @Success 200 {object} response.Response
// @Router /content/categories/{category}/locked [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	isLocked := h.service.CategoryLocked(r.Context(), middlewarectx.UIDFrom(r.Context()), category)

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"category": category,
		"locked":   isLocked,
	}))
}
