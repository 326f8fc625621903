package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/campuskart/internal/metrics"
)

// Dispatcher доставляет сообщение пользователю, если у него открыт поток.
// Доставка at-most-once: без подтверждений, ретраев и очереди.
// Если пользователь не подключён, сообщение теряется, и это не ошибка.
type Dispatcher struct {
	log      *slog.Logger
	registry *Registry
	metrics  *metrics.Registry
}

var _ Transport = (*Dispatcher)(nil)

func NewDispatcher(log *slog.Logger, registry *Registry, m *metrics.Registry) *Dispatcher {
	return &Dispatcher{log: log, registry: registry, metrics: m}
}

// Notify делает ровно одну синхронную попытку записи в канал пользователя.
func (d *Dispatcher) Notify(ctx context.Context, userID string, payload any) error {
	const op = "notify.Dispatcher.Notify"
	logger := d.log.With(slog.String("op", op), slog.String("userID", userID))

	ch, ok := d.registry.Lookup(userID)
	if !ok {
		d.metrics.NotificationsMissed.Inc()
		logger.Debug("recipient not connected, notification dropped")
		return nil
	}

	if err := ctx.Err(); err != nil {
		d.metrics.NotificationsFailed.Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	frame, err := EncodeEvent(payload)
	if err != nil {
		d.metrics.NotificationsFailed.Inc()
		logger.Error("failed to encode notification", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := ch.Send(frame); err != nil {
		d.metrics.NotificationsFailed.Inc()
		logger.Warn("failed to write notification", slog.Any("error", err))
		return fmt.Errorf("%s: failed to write: %w", op, err)
	}

	d.metrics.NotificationsDelivered.Inc()
	logger.Info("notification sent")
	return nil
}
