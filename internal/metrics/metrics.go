// Package metrics provides Prometheus instrumentation for the fraud
// scoring service.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudscore",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fraudscore",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// AnalysesTotal counts transaction analyses by decision.
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudscore",
			Name:      "analyses_total",
			Help:      "Total transaction analyses by decision (fraud/clean).",
		},
		[]string{"decision"},
	)

	// AnalysisDuration observes scoring latency end to end, including
	// the optional anomaly-model call.
	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fraudscore",
		Name:      "analysis_duration_seconds",
		Help:      "Transaction analysis duration in seconds.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// AlertsTotal counts fraud alerts raised.
	AlertsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fraudscore",
		Name:      "alerts_total",
		Help:      "Total fraud alerts raised.",
	})

	// AnomalyBlendsTotal counts analyses by anomaly-model outcome.
	AnomalyBlendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudscore",
			Name:      "anomaly_blends_total",
			Help:      "Anomaly model calls by outcome (blended/unavailable).",
		},
		[]string{"outcome"},
	)

	// TrackedUsers reports users currently held by the velocity tracker.
	TrackedUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudscore",
		Name:      "velocity_tracked_users",
		Help:      "Users currently tracked in the velocity window.",
	})

	// ActiveWebSocketClients tracks connected alert-stream clients.
	ActiveWebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudscore",
		Name:      "active_websocket_clients",
		Help:      "Number of currently connected WebSocket clients.",
	})

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudscore", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudscore", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AnalysesTotal,
		AnalysisDuration,
		AlertsTotal,
		AnomalyBlendsTotal,
		TrackedUsers,
		ActiveWebSocketClients,
		DBOpenConnections,
		GoroutineCount,
	)
}

// UserCounter reports how many users the velocity tracker holds.
type UserCounter interface {
	TrackedUsers() int
}

// StartCollector periodically samples gauge sources: velocity tracker
// size, goroutine count, and (when db is non-nil) connection stats.
// Call in a goroutine; exits when ctx is done.
func StartCollector(ctx context.Context, tracker UserCounter, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if tracker != nil {
				TrackedUsers.Set(float64(tracker.TrackedUsers()))
			}
			if db != nil {
				DBOpenConnections.Set(float64(db.Stats().OpenConnections))
			}
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // route pattern, not raw path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
