package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tutorbot"

// Metrics holds all Prometheus metrics for the service. It observes the
// session store and records tutoring exchanges.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsEvicted prometheus.Counter

	// Exchange metrics
	ExchangesTotal    *prometheus.CounterVec
	ModelCallDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of live tutoring sessions",
			},
		),
		SessionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_created_total",
				Help:      "Total number of sessions created",
			},
		),
		SessionsEvicted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_expired_total",
				Help:      "Total number of sessions evicted for inactivity",
			},
		),
		ExchangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exchanges_total",
				Help:      "Total number of chat exchanges by outcome",
			},
			[]string{"status"},
		),
		ModelCallDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Latency of generative model calls in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
		),
	}

	m.registry.MustRegister(
		m.SessionsActive,
		m.SessionsCreated,
		m.SessionsEvicted,
		m.ExchangesTotal,
		m.ModelCallDuration,
	)

	return m
}

// SessionCreated implements chat.Observer.
func (m *Metrics) SessionCreated() {
	m.SessionsCreated.Inc()
}

// SessionsExpired implements chat.Observer.
func (m *Metrics) SessionsExpired(n int) {
	m.SessionsEvicted.Add(float64(n))
}

// ActiveSessions implements chat.Observer.
func (m *Metrics) ActiveSessions(n int) {
	m.SessionsActive.Set(float64(n))
}

// ObserveExchange implements tutor.Recorder.
func (m *Metrics) ObserveExchange(status string) {
	m.ExchangesTotal.WithLabelValues(status).Inc()
}

// ObserveModelCall implements tutor.Recorder.
func (m *Metrics) ObserveModelCall(d time.Duration) {
	m.ModelCallDuration.Observe(d.Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
