// Package metrics exposes Prometheus counters for validation runs and the
// HTTP surface. Collectors live on their own registry so tests and the CLI
// can create independent instances.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

const namespace = "sheetnorm"

// Metrics holds the service collectors.
type Metrics struct {
	registry *prometheus.Registry

	records       *prometheus.CounterVec
	problems      *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	requests      *prometheus.CounterVec
	reqDuration   *prometheus.HistogramVec
	uploadsActive prometheus.Gauge
}

// New creates and registers the collectors, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records validated, by profile and outcome.",
		}, []string{"profile", "outcome"}),
		problems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_problems_total",
			Help:      "Field problems found in rejected records, by profile and error code.",
		}, []string{"profile", "code"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time to validate one sheet.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"profile"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		uploadsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uploads_active",
			Help:      "Uploads currently holding a processing slot.",
		}),
	}

	m.registry.MustRegister(
		m.records,
		m.problems,
		m.batchDuration,
		m.requests,
		m.reqDuration,
		m.uploadsActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveBatch records the outcome of one batch.
func (m *Metrics) ObserveBatch(res core.BatchResult, elapsed time.Duration) {
	profile := res.Profile.String()

	m.records.WithLabelValues(profile, "valid").Add(float64(res.Valid))
	m.records.WithLabelValues(profile, "invalid").Add(float64(res.Invalid))
	if res.Cancelled > 0 {
		m.records.WithLabelValues(profile, "cancelled").Add(float64(res.Cancelled))
	}

	for _, row := range res.Failures() {
		for _, fe := range core.FieldErrors(row.Err) {
			m.problems.WithLabelValues(profile, fe.Code).Inc()
		}
	}

	m.batchDuration.WithLabelValues(profile).Observe(elapsed.Seconds())
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.reqDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// UploadStarted and UploadFinished track the active upload gauge.
func (m *Metrics) UploadStarted()  { m.uploadsActive.Inc() }
func (m *Metrics) UploadFinished() { m.uploadsActive.Dec() }
