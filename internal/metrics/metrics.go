// Package metrics exposes Prometheus collectors for HTTP traffic and game play.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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

	sessionsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_sessions_started_total",
			Help: "Total number of game sessions started",
		},
		[]string{"type"},
	)

	answersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_answers_total",
			Help: "Total number of evaluated answers",
		},
		[]string{"type", "correct"},
	)

	pointsAwarded = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "game_points_awarded",
			Help:    "Points awarded per evaluated answer",
			Buckets: []float64{0, 25, 50, 100, 150, 200, 300, 500, 750},
		},
		[]string{"type"},
	)

	feedbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "game_feedback_total",
			Help: "Total number of feedback entries submitted",
		},
	)

	catalogCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_lookups_total",
			Help: "Catalog cache lookups by outcome",
		},
		[]string{"hit"},
	)
)

// Middleware records request count, latency and in-flight requests per chi
// route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSessionStarted counts a new session of the given type.
func RecordSessionStarted(gameType string) {
	sessionsStartedTotal.WithLabelValues(gameType).Inc()
}

// RecordAnswer counts an evaluated answer and the points it earned.
func RecordAnswer(gameType string, correct bool, points int) {
	answersTotal.WithLabelValues(gameType, strconv.FormatBool(correct)).Inc()
	pointsAwarded.WithLabelValues(gameType).Observe(float64(points))
}

func RecordFeedback() {
	feedbackTotal.Inc()
}

// RecordCatalogCache counts a catalog cache lookup.
func RecordCatalogCache(hit bool) {
	catalogCacheTotal.WithLabelValues(strconv.FormatBool(hit)).Inc()
}
