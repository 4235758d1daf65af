package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the counters the hub and dispatcher report into.
type Metrics struct {
	registry *prometheus.Registry

	ConnectionsActive prometheus.Gauge
	BroadcastsTotal   prometheus.Counter
	BroadcastDropped  prometheus.Counter

	NotificationsEnqueued *prometheus.CounterVec
	NotificationsFailed   *prometheus.CounterVec
	NotificationsSkipped  prometheus.Counter

	MessagesCreated prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "messaging_connections_active",
			Help: "Open websocket connections.",
		}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messaging_broadcasts_total",
			Help: "Room broadcast operations.",
		}),
		BroadcastDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messaging_broadcast_dropped_total",
			Help: "Per-connection sends dropped because the client queue was full.",
		}),
		NotificationsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messaging_notifications_enqueued_total",
			Help: "Fallback notifications handed to a sender, by channel.",
		}, []string{"channel"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messaging_notifications_failed_total",
			Help: "Fallback notification sender failures, by channel.",
		}, []string{"channel"}),
		NotificationsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messaging_notifications_skipped_total",
			Help: "Recipients skipped because they were live in the room or deduped.",
		}),
		MessagesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messaging_messages_created_total",
			Help: "Messages persisted.",
		}),
	}

	reg.MustRegister(
		m.ConnectionsActive,
		m.BroadcastsTotal,
		m.BroadcastDropped,
		m.NotificationsEnqueued,
		m.NotificationsFailed,
		m.NotificationsSkipped,
		m.MessagesCreated,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
