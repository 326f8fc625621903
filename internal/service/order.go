package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/linemk/campuskart/internal/domain/models"
	"github.com/linemk/campuskart/internal/events"
	"github.com/linemk/campuskart/internal/metrics"
	"github.com/linemk/campuskart/internal/notify"
	"github.com/linemk/campuskart/internal/storage"
	"github.com/samber/lo"
)

// OrderServiceInterface описывает операции с заказами
type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*models.EnrichedOrder, error)
	ListSellerOrders(ctx context.Context, userID string) ([]*models.EnrichedOrder, error)
	ListUserOrders(ctx context.Context, userID string) ([]*models.EnrichedOrder, error)
	ClearNotifications(ctx context.Context, sellerID string) (int64, error)
	MarkRead(ctx context.Context, orderID string) (*models.Order, error)
}

type CreateOrderInput struct {
	ProductID string  `json:"productId" validate:"required"`
	SellerID  string  `json:"sellerId" validate:"required"`
	BuyerID   string  `json:"buyerId" validate:"required"`
	Price     float64 `json:"price" validate:"required,price"`
}

type OrderService struct {
	log         *slog.Logger
	orderRepo   storage.OrderStorage
	productRepo storage.ProductStorage
	userRepo    storage.UserStorage
	notifier    notify.Transport
	events      events.Publisher
	metrics     *metrics.Registry
	now         func() time.Time
}

func NewOrderService(
	log *slog.Logger,
	orderRepo storage.OrderStorage,
	productRepo storage.ProductStorage,
	userRepo storage.UserStorage,
	notifier notify.Transport,
	publisher events.Publisher,
	m *metrics.Registry,
) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		log:         log,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		events:      publisher,
		metrics:     m,
		now:         time.Now,
	}
}

// CreateOrder сохраняет заказ, подмешивает сводки товара и пользователей
// и отправляет продавцу ровно одно уведомление. Исход доставки на результат не влияет.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.EnrichedOrder, error) {
	const op = "service.OrderService.CreateOrder"
	logger := s.log.With(
		slog.String("op", op),
		slog.String("productID", in.ProductID),
		slog.String("sellerID", in.SellerID),
		slog.String("buyerID", in.BuyerID),
	)

	if err := validateInput(op, in); err != nil {
		logger.Warn("invalid order input", slog.Any("error", err))
		return nil, err
	}

	order, err := s.orderRepo.CreateOrder(ctx, &models.Order{
		ProductID: in.ProductID,
		SellerID:  in.SellerID,
		BuyerID:   in.BuyerID,
		Price:     in.Price,
	})
	if err != nil {
		if errors.Is(err, storage.ErrReferenceNotFound) {
			logger.Warn("order references unknown product or user")
			return nil, &NotFoundError{Op: op, Entity: "product or user", Err: err}
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, &PersistenceError{Op: op, Err: err}
	}
	logger = logger.With(slog.String("orderID", order.ID))
	logger.Info("order created")
	s.metrics.OrdersCreated.Inc()

	enriched := s.enrich(ctx, logger, order)

	notification := &models.OrderNotification{
		ID:        enriched.ID,
		Product:   enriched.Product,
		Buyer:     enriched.Buyer,
		Price:     enriched.Price,
		CreatedAt: enriched.CreatedAt,
		Message:   PurchaseMessage(enriched.Buyer.Name, enriched.Product.Title, enriched.Price),
	}
	if err := s.notifier.Notify(ctx, order.SellerID, notification); err != nil {
		logger.Warn("failed to notify seller", slog.Any("error", err))
	}

	s.publish(ctx, logger, events.OrderEvent{
		Type:      events.OrderCreated,
		OrderID:   order.ID,
		SellerID:  order.SellerID,
		BuyerID:   order.BuyerID,
		ProductID: order.ProductID,
		Price:     order.Price,
	})

	return enriched, nil
}

// enrich читает товар и обоих участников уже после записи заказа.
// Если какая-то сводка не прочиталась, остаётся только её идентификатор.
func (s *OrderService) enrich(ctx context.Context, logger *slog.Logger, order *models.Order) *models.EnrichedOrder {
	enriched := &models.EnrichedOrder{
		ID:        order.ID,
		Product:   &models.ProductSummary{ID: order.ProductID},
		Seller:    &models.UserSummary{ID: order.SellerID},
		Buyer:     &models.UserSummary{ID: order.BuyerID},
		Price:     order.Price,
		Status:    order.Status,
		Read:      order.Read,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}

	if product, err := s.productRepo.GetProductByID(ctx, order.ProductID); err != nil {
		logger.Warn("failed to load product for order", slog.Any("error", err))
	} else {
		enriched.Product.Title = product.Title
		enriched.Product.Price = product.Price
	}

	for _, summary := range []*models.UserSummary{enriched.Buyer, enriched.Seller} {
		user, err := s.userRepo.GetUserByID(ctx, summary.ID)
		if err != nil {
			logger.Warn("failed to load user for order", slog.String("userID", summary.ID), slog.Any("error", err))
			continue
		}
		summary.Name = user.Name
		summary.Email = user.Email
	}

	return enriched
}

// PurchaseMessage собирает текст уведомления: "<покупатель> bought your <товар> for ₹<цена>".
func PurchaseMessage(buyerName, productTitle string, price float64) string {
	return fmt.Sprintf("%s bought your %s for ₹%s",
		lo.CoalesceOrEmpty(buyerName, "Someone"),
		lo.CoalesceOrEmpty(productTitle, "item"),
		strconv.FormatFloat(price, 'f', -1, 64),
	)
}

// ListSellerOrders возвращает заказы, где пользователь продавец, новые первыми.
func (s *OrderService) ListSellerOrders(ctx context.Context, userID string) ([]*models.EnrichedOrder, error) {
	const op = "service.OrderService.ListSellerOrders"
	logger := s.log.With(slog.String("op", op), slog.String("userID", userID))

	if userID == "" {
		return nil, &ValidationError{Op: op, Fields: []string{"userId"}}
	}

	orders, err := s.orderRepo.ListOrdersBySeller(ctx, userID)
	if err != nil {
		logger.Error("failed to list seller orders", slog.Any("error", err))
		return nil, &PersistenceError{Op: op, Err: err}
	}
	return orders, nil
}

// ListUserOrders возвращает заказы, где пользователь покупатель или продавец.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]*models.EnrichedOrder, error) {
	const op = "service.OrderService.ListUserOrders"
	logger := s.log.With(slog.String("op", op), slog.String("userID", userID))

	if userID == "" {
		return nil, &ValidationError{Op: op, Fields: []string{"userId"}}
	}

	orders, err := s.orderRepo.ListOrdersByParticipant(ctx, userID)
	if err != nil {
		logger.Error("failed to list user orders", slog.Any("error", err))
		return nil, &PersistenceError{Op: op, Err: err}
	}
	return orders, nil
}

// ClearNotifications помечает прочитанными непрочитанные заказы продавца
// и отправляет ему директиву {clear: true}. Заказы, где он только покупатель, не трогаются.
func (s *OrderService) ClearNotifications(ctx context.Context, sellerID string) (int64, error) {
	const op = "service.OrderService.ClearNotifications"
	logger := s.log.With(slog.String("op", op), slog.String("sellerID", sellerID))

	if sellerID == "" {
		return 0, &ValidationError{Op: op, Fields: []string{"userId"}}
	}

	updated, err := s.orderRepo.MarkAllReadBySeller(ctx, sellerID)
	if err != nil {
		logger.Error("failed to mark orders as read", slog.Any("error", err))
		return 0, &PersistenceError{Op: op, Err: err}
	}
	logger.Info("notifications cleared", slog.Int64("updated", updated))

	if err := s.notifier.Notify(ctx, sellerID, models.ClearDirective{Clear: true}); err != nil {
		logger.Warn("failed to send clear directive", slog.Any("error", err))
	}

	s.publish(ctx, logger, events.OrderEvent{
		Type:     events.OrdersCleared,
		SellerID: sellerID,
		Count:    updated,
	})

	return updated, nil
}

// MarkRead помечает прочитанным один заказ.
func (s *OrderService) MarkRead(ctx context.Context, orderID string) (*models.Order, error) {
	const op = "service.OrderService.MarkRead"
	logger := s.log.With(slog.String("op", op), slog.String("orderID", orderID))

	if orderID == "" {
		return nil, &ValidationError{Op: op, Fields: []string{"orderId"}}
	}

	order, err := s.orderRepo.MarkRead(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("order not found")
			return nil, &NotFoundError{Op: op, Entity: "order", ID: orderID, Err: err}
		}
		logger.Error("failed to mark order as read", slog.Any("error", err))
		return nil, &PersistenceError{Op: op, Err: err}
	}

	s.publish(ctx, logger, events.OrderEvent{
		Type:      events.OrderRead,
		OrderID:   order.ID,
		SellerID:  order.SellerID,
		BuyerID:   order.BuyerID,
		ProductID: order.ProductID,
		Price:     order.Price,
	})

	return order, nil
}

// publish пишет событие в журнал. Ошибки журнала только логируются.
func (s *OrderService) publish(ctx context.Context, logger *slog.Logger, e events.OrderEvent) {
	e.At = s.now().UTC()
	if err := s.events.Publish(ctx, e); err != nil {
		logger.Warn("failed to publish order event", slog.String("type", string(e.Type)), slog.Any("error", err))
	}
}
