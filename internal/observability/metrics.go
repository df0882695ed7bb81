// Package observability holds Prometheus collectors and OpenTelemetry tracing setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts read-through cache lookups by key kind and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cache_lookups_total",
		Help: "Read-through cache lookups by key kind and result",
	}, []string{"kind", "result"})

	// CacheInvalidations counts eager invalidations by key kind.
	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cache_invalidations_total",
		Help: "Cache keys deleted after writes, by key kind",
	}, []string{"kind"})

	// OTPEvents counts one-time code activity (issued, verified, rejected).
	OTPEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_otp_events_total",
		Help: "One-time password events by outcome",
	}, []string{"event"})

	// MailDeliveries counts outbound mail attempts by template and status.
	MailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_mail_deliveries_total",
		Help: "Outbound email attempts by template and status",
	}, []string{"template", "status"})

	// NotificationsPublished counts real-time notifications by type.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_notifications_published_total",
		Help: "Real-time notifications published by type",
	}, []string{"type"})

	// WebSocketConnectionsTotal is the gauge of open WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inkwell_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)
