// Package observability provides metrics and tracing for the application.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feira_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feira_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// EmailDispatchTotal counts transactional emails by template and outcome.
	EmailDispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feira_email_dispatch_total",
		Help: "Total transactional emails dispatched by template and outcome",
	}, []string{"template", "outcome"})

	// ModerationTransitionsTotal counts listing state transitions by operation.
	ModerationTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feira_moderation_transitions_total",
		Help: "Total listing moderation transitions by operation",
	}, []string{"operation"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feira_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped on slow clients.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feira_websocket_backpressure_drops_total",
		Help: "Messages dropped because a client send buffer was full or closed",
	}, []string{"hub", "reason"})
)

// ObserveQuery records the latency of a database query started at start.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}
