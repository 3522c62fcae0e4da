package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/careguide/careguide/pkg/types"
)

const namespace = "careguide"

// Upstream call outcomes used as the "outcome" label of the duration histogram.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds every collector the server records into.
type Metrics struct {
	registry *prometheus.Registry

	lookups          *prometheus.CounterVec
	upstreamFailures *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
}

// New creates a Metrics with a fresh registry. Go runtime and process
// collectors are registered alongside the application metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guideline_lookups_total",
			Help:      "Guideline lookups answered, by response source.",
		}, []string{"source"}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_failures_total",
			Help:      "Failed upstream guideline fetches, by failure class.",
		}, []string{"class"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of upstream guideline fetches.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 6, 10},
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route group, method and status code.",
		}, []string{"route", "method", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.lookups,
		m.upstreamFailures,
		m.upstreamDuration,
		m.httpRequests,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the text exposition of the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLookup counts one answered lookup.
func (m *Metrics) ObserveLookup(source types.Source) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(string(source)).Inc()
}

// ObserveUpstream records the duration of one upstream fetch. class is empty
// on success and the failure class otherwise.
func (m *Metrics) ObserveUpstream(d time.Duration, class string) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if class != "" {
		outcome = OutcomeFailure
		m.upstreamFailures.WithLabelValues(class).Inc()
	}
	m.upstreamDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveHTTP counts one served HTTP request.
func (m *Metrics) ObserveHTTP(route, method string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}
