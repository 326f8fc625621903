package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry держит собственный prometheus.Registry, чтобы в тестах
// несколько экземпляров не конфликтовали в глобальном DefaultRegisterer.
type Registry struct {
	reg *prometheus.Registry

	NotificationsDelivered prometheus.Counter
	NotificationsMissed    prometheus.Counter
	NotificationsFailed    prometheus.Counter
	StreamsActive          prometheus.Gauge
	OrdersCreated          prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	delivered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campuskart_notifications_delivered_total",
		Help: "Notifications written to an open stream.",
	})
	missed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campuskart_notifications_missed_total",
		Help: "Notifications dropped because the recipient had no open stream.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campuskart_notifications_failed_total",
		Help: "Notifications that failed to encode or write.",
	})
	streams := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "campuskart_notification_streams_active",
		Help: "Currently open notification streams.",
	})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campuskart_orders_created_total",
		Help: "Orders persisted.",
	})

	r.MustRegister(delivered, missed, failed, streams, orders)
	return &Registry{
		reg:                    r,
		NotificationsDelivered: delivered,
		NotificationsMissed:    missed,
		NotificationsFailed:    failed,
		StreamsActive:          streams,
		OrdersCreated:          orders,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
