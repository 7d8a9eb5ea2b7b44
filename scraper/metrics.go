package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the fetch layer.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	ChallengesTotal   prometheus.Counter
	PagesParsedTotal  *prometheus.CounterVec
	ErrorsTotal       *prometheus.CounterVec
	CandidatesCurrent prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kobosource_requests_total",
			Help: "Total HTTP requests issued by the fetcher.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kobosource_request_duration_seconds",
			Help:    "HTTP request latency for fetcher requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	challenges := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kobosource_bot_challenges_total",
			Help: "Total number of interstitial challenge pages encountered.",
		},
	)
	pagesParsed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kobosource_pages_total",
			Help: "Total pages fetched by classification.",
		},
		[]string{"kind"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kobosource_errors_total",
			Help: "Total number of fetch errors by type.",
		},
		[]string{"error_type"},
	)
	candidates := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kobosource_candidates_last",
			Help: "Candidate URLs collected by the most recent search.",
		},
	)

	registry.MustRegister(requests, requestDuration, challenges, pagesParsed, errorsTotal, candidates)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   requestDuration,
		ChallengesTotal:   challenges,
		PagesParsedTotal:  pagesParsed,
		ErrorsTotal:       errorsTotal,
		CandidatesCurrent: candidates,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncChallenge increments the challenge counter.
func (m *Metrics) IncChallenge() {
	if m == nil {
		return
	}
	m.ChallengesTotal.Inc()
}

// IncPage increments the fetched-pages counter for a classification label.
func (m *Metrics) IncPage(kind string) {
	if m == nil {
		return
	}
	m.PagesParsedTotal.WithLabelValues(kind).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// SetCandidates records how many candidate URLs the last search produced.
func (m *Metrics) SetCandidates(n int) {
	if m == nil {
		return
	}
	m.CandidatesCurrent.Set(float64(n))
}
