package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// ApplicationTransitions counts application status transitions by action.
	ApplicationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gcxportal_application_transitions_total",
		Help: "Total number of application status transitions by action",
	}, []string{"action"})

	// DocumentUploads counts document uploads by requirement code.
	DocumentUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gcxportal_document_uploads_total",
		Help: "Total number of document uploads by requirement code",
	}, []string{"requirement"})

	// NotificationsSent counts notification dispatch outcomes by channel and result.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gcxportal_notifications_total",
		Help: "Total notification dispatch attempts by channel and result",
	}, []string{"channel", "result"})

	// NotificationsDropped counts events dropped because the dispatch queue was full.
	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gcxportal_notifications_dropped_total",
		Help: "Total notification events dropped due to a full dispatch queue",
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gcxportal_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnections is the gauge of active staff feed connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gcxportal_websocket_connections",
		Help: "Number of active staff event feed connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client
	// buffer was full or closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gcxportal_websocket_backpressure_drops_total",
		Help: "Total websocket messages dropped due to client backpressure",
	}, []string{"hub", "reason"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}
