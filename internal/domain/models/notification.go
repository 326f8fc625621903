package models

import "time"

// OrderNotification уходит продавцу в поток уведомлений при новом заказе.
// sellerId намеренно не передаётся: получатель и есть продавец.
type OrderNotification struct {
	ID        string          `json:"_id"`
	Product   *ProductSummary `json:"productId"`
	Buyer     *UserSummary    `json:"buyerId"`
	Price     float64         `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
	Message   string          `json:"message"`
}

// ClearDirective говорит клиенту очистить локальный список уведомлений.
type ClearDirective struct {
	Clear bool `json:"clear"`
}
