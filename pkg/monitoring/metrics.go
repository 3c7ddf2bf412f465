package monitoring

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "service"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	// Database metrics
	dbQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"query_type", "service"},
	)

	// Authentication metrics
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"role", "status", "service"},
	)

	// Appointment lifecycle metrics
	appointmentEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointment_events_total",
			Help: "Total number of appointment lifecycle events",
		},
		[]string{"event", "actor_role", "service"},
	)

	// System metrics
	systemErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "system_errors_total",
			Help: "Total number of system errors",
		},
		[]string{"error_type", "service", "component"},
	)
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	serviceName string
}

var registerOnce sync.Once

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	// Collectors are package globals; register them once per process
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			dbQueryDuration,
			authAttemptsTotal,
			appointmentEventsTotal,
			systemErrors,
		)
	})

	return &MetricsCollector{
		serviceName: serviceName,
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordDBQuery records database query metrics
func (m *MetricsCollector) RecordDBQuery(queryType string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(queryType, m.serviceName).Observe(duration.Seconds())
}

// RecordAuthAttempt records authentication attempt metrics
func (m *MetricsCollector) RecordAuthAttempt(role, status string) {
	authAttemptsTotal.WithLabelValues(role, status, m.serviceName).Inc()
}

// RecordAppointmentEvent records appointment lifecycle metrics
func (m *MetricsCollector) RecordAppointmentEvent(event, actorRole string) {
	appointmentEventsTotal.WithLabelValues(event, actorRole, m.serviceName).Inc()
}

// RecordSystemError records system error metrics
func (m *MetricsCollector) RecordSystemError(errorType, component string) {
	systemErrors.WithLabelValues(errorType, m.serviceName, component).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware records request metrics for a gin router
func (m *MetricsCollector) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), duration)
	}
}
