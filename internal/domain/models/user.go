package models

import "time"

// User представляет зарегистрированного студента (он же продавец и покупатель)
type User struct {
	ID        string
	Name      string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

// UserSummary содержит урезанное представление пользователя для обогащения заказов.
type UserSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
