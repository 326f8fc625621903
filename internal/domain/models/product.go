package models

import "time"

// Product представляет объявление о продаже
type Product struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"user"` // владелец объявления
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductSummary несёт название и текущую цену товара для заказа
type ProductSummary struct {
	ID    string  `json:"_id"`
	Title string  `json:"title,omitempty"`
	Price float64 `json:"price,omitempty"`
}
