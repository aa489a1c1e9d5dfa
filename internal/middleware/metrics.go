package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	bugTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bug_transitions_total",
			Help: "Total number of bug status transitions",
		},
		[]string{"status"},
	)

	bugsClosedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bugs_closed_total",
			Help: "Total number of bugs closed (deleted)",
		},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notification delivery attempts",
		},
		[]string{"outcome"},
	)

	notificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_send_duration_seconds",
			Help:    "Notification delivery attempt duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// MetricsMiddleware collects Prometheus metrics for HTTP requests.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		httpRequestsInFlight.Inc()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		httpRequestsInFlight.Dec()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)
	}
}

// RecordBugTransition counts a successful status transition.
func RecordBugTransition(status string) {
	bugTransitionsTotal.WithLabelValues(status).Inc()
}

// RecordBugClosed counts a successful close (row removal).
func RecordBugClosed() {
	bugsClosedTotal.Inc()
}

// RecordNotification records one delivery attempt and its duration.
func RecordNotification(delivered bool, duration time.Duration) {
	outcome := "delivered"
	if !delivered {
		outcome = "failed"
	}
	notificationsTotal.WithLabelValues(outcome).Inc()
	notificationDuration.Observe(duration.Seconds())
}
