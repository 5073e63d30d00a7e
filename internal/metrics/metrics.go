package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments used for monitoring the API.
// It covers HTTP traffic, database query latency, lifecycle transitions
// and the notification pipeline.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	DBQueryDuration     *prometheus.HistogramVec
	TaskTransitions     *prometheus.CounterVec
	LoginAttempts       *prometheus.CounterVec
	NotificationsStored prometheus.Counter
	EventsPublished     *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered against the provided
// Registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "homecare_http_requests_total",
			Help: "Total number of handled HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "homecare_http_request_duration_seconds",
			Help:    "Duration of handled HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "homecare_db_query_duration_seconds",
			Help:    "Duration of database queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: 'get_task', 'update_task_status'
		TaskTransitions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "homecare_task_transitions_total",
			Help: "Total number of applied task lifecycle transitions.",
		}, []string{"operation", "to_status"}),
		LoginAttempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "homecare_login_attempts_total",
			Help: "Total number of login attempts by outcome.",
		}, []string{"outcome"}),
		NotificationsStored: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "homecare_notifications_stored_total",
			Help: "Total number of notifications persisted by the worker.",
		}),
		EventsPublished: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "homecare_lifecycle_events_published_total",
			Help: "Total number of lifecycle events handed to the broker.",
		}, []string{"status"}),
	}

	metrics.LoginAttempts.WithLabelValues("success")
	metrics.LoginAttempts.WithLabelValues("failure")
	metrics.EventsPublished.WithLabelValues("success")
	metrics.EventsPublished.WithLabelValues("failure")

	return metrics
}
