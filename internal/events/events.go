package events

import (
	"context"
	"time"
)

// Type обозначает тип события в журнале заказов
type Type string

const (
	OrderCreated  Type = "order.created"
	OrderRead     Type = "order.read"
	OrdersCleared Type = "orders.cleared"
)

// OrderEvent описывает запись журнала заказов. Это аудит, а не доставка уведомлений.
type OrderEvent struct {
	Type      Type      `json:"type"`
	OrderID   string    `json:"orderId,omitempty"`
	SellerID  string    `json:"sellerId"`
	BuyerID   string    `json:"buyerId,omitempty"`
	ProductID string    `json:"productId,omitempty"`
	Price     float64   `json:"price,omitempty"`
	Count     int64     `json:"count,omitempty"` // сколько заказов помечено прочитанными
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
}

// NopPublisher ничего не пишет, используется когда журнал выключен.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }

// MultiPublisher пишет событие во все вложенные приёмники по очереди.
type MultiPublisher struct {
	publishers []Publisher
}

func NewMultiPublisher(ps ...Publisher) *MultiPublisher {
	return &MultiPublisher{publishers: ps}
}

func (m *MultiPublisher) Publish(ctx context.Context, e OrderEvent) error {
	for _, p := range m.publishers {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
