package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus instruments used by the gateway.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	LiveSessions     *prometheus.CounterVec
	LiveSetupLatency prometheus.Histogram
	TitleTasks       *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"route"}),
		LiveSessions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_sessions_total",
			Help:      "Live voice sessions by outcome.",
		}, []string{"outcome"}),
		LiveSetupLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "live_setup_latency_ms",
			Help:      "Latency of the live setup handshake in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		TitleTasks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "title_tasks_total",
			Help:      "Detached title-generation tasks by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveLiveSetup(d time.Duration) {
	m.LiveSetupLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
