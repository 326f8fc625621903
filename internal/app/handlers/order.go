package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/campuskart/internal/domain/models"
	"github.com/linemk/campuskart/internal/service"
)

type ClearResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

// CreateOrderHandler обрабатывает POST /api/orders.
// Это единственная точка создания заказа, продавец получает уведомление отсюда.
func CreateOrderHandler(log *slog.Logger, orderService service.OrderServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		var req service.CreateOrderInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeMessage(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		order, err := orderService.CreateOrder(r.Context(), req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, order)
	}
}

// SellerOrdersHandler обрабатывает GET /api/orders/seller/{userId}
func SellerOrdersHandler(log *slog.Logger, orderService service.OrderServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SellerOrdersHandler"
		logger := log.With(slog.String("op", op))

		orders, err := orderService.ListSellerOrders(r.Context(), chi.URLParam(r, "userId"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeOrders(w, logger, orders)
	}
}

// UserOrdersHandler обрабатывает GET /api/orders/{userId}: покупки и продажи пользователя
func UserOrdersHandler(log *slog.Logger, orderService service.OrderServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UserOrdersHandler"
		logger := log.With(slog.String("op", op))

		orders, err := orderService.ListUserOrders(r.Context(), chi.URLParam(r, "userId"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeOrders(w, logger, orders)
	}
}

func writeOrders(w http.ResponseWriter, log *slog.Logger, orders []*models.EnrichedOrder) {
	if orders == nil {
		orders = []*models.EnrichedOrder{}
	}
	writeJSON(w, log, http.StatusOK, orders)
}

// ClearNotificationsHandler обрабатывает PATCH /api/orders/clear/{userId}
func ClearNotificationsHandler(log *slog.Logger, orderService service.OrderServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ClearNotificationsHandler"
		logger := log.With(slog.String("op", op))

		updated, err := orderService.ClearNotifications(r.Context(), chi.URLParam(r, "userId"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, ClearResponse{Message: "Notifications cleared", Updated: updated})
	}
}

// MarkReadHandler обрабатывает PATCH /api/orders/{orderId}/read
func MarkReadHandler(log *slog.Logger, orderService service.OrderServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MarkReadHandler"
		logger := log.With(slog.String("op", op))

		order, err := orderService.MarkRead(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}
