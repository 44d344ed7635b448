package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatterbox_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat backend.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatterbox_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatterbox_active_sessions",
			Help: "Number of chat sessions with a live websocket.",
		},
	)
	sessionEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatterbox_session_events_total",
			Help: "Session commands and inbound channel events, by name.",
		},
		[]string{"source", "event"},
	)
	messagesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatterbox_messages_sent_total",
			Help: "Messages broadcast by local sessions.",
		},
	)
	messagesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatterbox_messages_dropped_total",
			Help: "Inbound messages ignored by a session, by reason.",
		},
		[]string{"reason"},
	)
	storageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatterbox_storage_errors_total",
			Help: "Swallowed conversation load/save failures.",
		},
		[]string{"op"},
	)
	auditPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatterbox_audit_publish_errors_total",
			Help: "Total number of audit publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		activeSessions,
		sessionEventsTotal,
		messagesSentTotal,
		messagesDroppedTotal,
		storageErrorsTotal,
		auditPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncActiveSessions() { activeSessions.Inc() }

func DecActiveSessions() { activeSessions.Dec() }

// IncSessionEvent counts a command ("ui") or a channel event ("channel").
func IncSessionEvent(source, event string) {
	sessionEventsTotal.WithLabelValues(source, event).Inc()
}

func IncMessageSent() { messagesSentTotal.Inc() }

func IncMessageDropped(reason string) {
	messagesDroppedTotal.WithLabelValues(reason).Inc()
}

func IncStorageError(op string) {
	storageErrorsTotal.WithLabelValues(op).Inc()
}

func IncAuditPublishError() {
	auditPublishErrorsTotal.Inc()
}
