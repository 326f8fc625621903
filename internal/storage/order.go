package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/linemk/campuskart/internal/domain/models"
)

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrder вставляет новый заказ со статусом pending и read=false.
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	// GetOrderByID возвращает заказ или ErrOrderNotFound.
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	// ListOrdersBySeller возвращает заказы продавца с JOIN товара и пользователей, новые первыми.
	ListOrdersBySeller(ctx context.Context, sellerID string) ([]*models.EnrichedOrder, error)
	// ListOrdersByParticipant возвращает заказы, где пользователь покупатель или продавец.
	ListOrdersByParticipant(ctx context.Context, userID string) ([]*models.EnrichedOrder, error)
	// MarkAllReadBySeller помечает прочитанными все непрочитанные заказы продавца.
	MarkAllReadBySeller(ctx context.Context, sellerID string) (int64, error)
	// MarkRead помечает прочитанным один заказ и возвращает его.
	MarkRead(ctx context.Context, id string) (*models.Order, error)
}

// orderRepository реализует OrderStorage поверх postgres.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderColumns = "id, product_id, seller_id, buyer_id, price, status, read, created_at, updated_at"

// CreateOrder вставляет новый заказ в таблицу orders.
// Нарушение внешнего ключа означает, что товара или пользователя нет.
func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.NewString()
	order.Status = models.OrderStatusPending
	order.Read = false

	query := `INSERT INTO orders (id, product_id, seller_id, buyer_id, price, status, read, created_at, updated_at) 
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	          RETURNING price, created_at, updated_at`
	// цену перечитываем: в заказе остаётся то, что записано в NUMERIC(12, 2)
	err := r.db.QueryRowContext(ctx, query,
		order.ID, order.ProductID, order.SellerID, order.BuyerID, order.Price, order.Status, order.Read,
	).Scan(&order.Price, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if hasPQCode(err, pqForeignKeyViolation) {
			return nil, ErrReferenceNotFound
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// enrichedOrdersQuery выбирает заказы вместе со сводками товара, покупателя и продавца
const enrichedOrdersQuery = `
		SELECT o.id, o.price, o.status, o.read, o.created_at, o.updated_at,
		       p.id, p.title, p.price,
		       b.id, b.name, b.email,
		       s.id, s.name, s.email
		FROM orders o
		JOIN products p ON o.product_id = p.id
		JOIN users b ON o.buyer_id = b.id
		JOIN users s ON o.seller_id = s.id`

// ListOrdersBySeller возвращает заказы продавца с JOIN, чтобы сразу получить названия и имена.
func (r *orderRepository) ListOrdersBySeller(ctx context.Context, sellerID string) ([]*models.EnrichedOrder, error) {
	query := enrichedOrdersQuery + `
		WHERE o.seller_id = $1
		ORDER BY o.created_at DESC`
	return r.listEnriched(ctx, query, sellerID)
}

func (r *orderRepository) ListOrdersByParticipant(ctx context.Context, userID string) ([]*models.EnrichedOrder, error) {
	query := enrichedOrdersQuery + `
		WHERE o.buyer_id = $1 OR o.seller_id = $1
		ORDER BY o.created_at DESC`
	return r.listEnriched(ctx, query, userID)
}

func (r *orderRepository) MarkAllReadBySeller(ctx context.Context, sellerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET read = TRUE, updated_at = NOW() WHERE seller_id = $1 AND read = FALSE", sellerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark orders read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (r *orderRepository) MarkRead(ctx context.Context, id string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx,
		"UPDATE orders SET read = TRUE, updated_at = NOW() WHERE id = $1 RETURNING "+orderColumns, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to mark order read: %w", err)
	}
	return order, nil
}

func (r *orderRepository) listEnriched(ctx context.Context, query string, args ...any) ([]*models.EnrichedOrder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.EnrichedOrder, 0)
	for rows.Next() {
		o := &models.EnrichedOrder{
			Product: &models.ProductSummary{},
			Buyer:   &models.UserSummary{},
			Seller:  &models.UserSummary{},
		}
		if err := rows.Scan(
			&o.ID, &o.Price, &o.Status, &o.Read, &o.CreatedAt, &o.UpdatedAt,
			&o.Product.ID, &o.Product.Title, &o.Product.Price,
			&o.Buyer.ID, &o.Buyer.Name, &o.Buyer.Email,
			&o.Seller.ID, &o.Seller.Name, &o.Seller.Email,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	if err := row.Scan(&o.ID, &o.ProductID, &o.SellerID, &o.BuyerID, &o.Price, &o.Status, &o.Read, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}
