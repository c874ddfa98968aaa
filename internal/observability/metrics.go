package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gema_curriculum"

type collectors struct {
	adminRequests  *prometheus.CounterVec
	adminLatency   *prometheus.HistogramVec
	transitions    *prometheus.CounterVec
	leaderboards   *prometheus.CounterVec
	leaderboardDur *prometheus.HistogramVec
	streamClients  prometheus.Gauge
}

var (
	registerOnce sync.Once
	metrics      collectors
)

// RegisterMetrics registers the curriculum collectors with the default
// registry. Safe to call repeatedly.
func RegisterMetrics() {
	registerOnce.Do(func() {
		metrics = collectors{
			adminRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admin_requests_total",
				Help:      "Admin API requests by route and response status.",
			}, []string{"method", "route", "status"}),
			adminLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "admin_request_duration_seconds",
				Help:      "Admin API request latency.",
				Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			}, []string{"method", "route"}),
			transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "module_activation_transitions_total",
				Help:      "Module activation lifecycle transitions by outcome.",
			}, []string{"transition", "outcome"}),
			leaderboards: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "leaderboard_requests_total",
				Help:      "Leaderboard requests by kind and cache result.",
			}, []string{"kind", "cache"}),
			leaderboardDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "leaderboard_build_seconds",
				Help:      "Time spent aggregating and ranking a leaderboard.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			}, []string{"kind"}),
			streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "activation_stream_clients",
				Help:      "Admin dashboards subscribed to activation events.",
			}),
		}

		prometheus.MustRegister(
			metrics.adminRequests,
			metrics.adminLatency,
			metrics.transitions,
			metrics.leaderboards,
			metrics.leaderboardDur,
			metrics.streamClients,
		)
	})
}

// ObserveAdminRequest records one served admin request.
func ObserveAdminRequest(method, route string, status int, elapsed time.Duration) {
	RegisterMetrics()
	metrics.adminRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	metrics.adminLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CountTransition records a lifecycle transition attempt.
func CountTransition(transition, outcome string) {
	RegisterMetrics()
	metrics.transitions.WithLabelValues(transition, outcome).Inc()
}

// CountLeaderboard records how a leaderboard request was served:
// hit, miss, bypass or error.
func CountLeaderboard(kind, cache string) {
	RegisterMetrics()
	metrics.leaderboards.WithLabelValues(kind, cache).Inc()
}

// ObserveLeaderboard records how long a leaderboard took to build.
func ObserveLeaderboard(kind string, elapsed time.Duration) {
	RegisterMetrics()
	metrics.leaderboardDur.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// StreamClientConnected counts a dashboard subscription and returns the
// func that releases it.
func StreamClientConnected() (release func()) {
	RegisterMetrics()
	metrics.streamClients.Inc()
	var once sync.Once
	return func() {
		once.Do(metrics.streamClients.Dec)
	}
}
