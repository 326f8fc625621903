package notify

import "context"

// Channel описывает открытый канал к одному клиенту, через который сервер
// пушит события без опроса со стороны клиента.
// Реализация должна быть сравнимой (указатель), Registry сравнивает каналы через ==.
type Channel interface {
	Send(frame []byte) error
}

// Transport доставляет сообщение пользователю, если он сейчас достижим.
// Сервис заказов зависит только от этого интерфейса: локальный Dispatcher
// можно заменить брокером без изменений в бизнес-логике.
type Transport interface {
	Notify(ctx context.Context, userID string, payload any) error
}
