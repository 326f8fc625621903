package models

import "time"

// OrderStatus — статус заказа. Переходы между статусами сервис не автоматизирует.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order представляет покупку товара одним пользователем у другого.
// Price фиксируется на момент покупки и не зависит от текущей цены товара.
type Order struct {
	ID        string      `json:"_id"`
	ProductID string      `json:"productId"`
	SellerID  string      `json:"sellerId"`
	BuyerID   string      `json:"buyerId"`
	Price     float64     `json:"price"`
	Status    OrderStatus `json:"status"`
	Read      bool        `json:"read"` // продавец видел уведомление
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// EnrichedOrder содержит заказ со сводками по товару, покупателю и продавцу.
// Форма ответа повторяет populate из старого API: вместо идентификаторов приходят объекты.
type EnrichedOrder struct {
	ID        string          `json:"_id"`
	Product   *ProductSummary `json:"productId"`
	Seller    *UserSummary    `json:"sellerId"`
	Buyer     *UserSummary    `json:"buyerId"`
	Price     float64         `json:"price"`
	Status    OrderStatus     `json:"status"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
