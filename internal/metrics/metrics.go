// Package metrics exposes docfill prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	previewRenders  prometheus.Counter
	previewDuration prometheus.Histogram
	unmatchedTokens prometheus.Counter
	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	dropPayloads    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers the docfill collectors plus the Go and process collectors on
// a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		previewRenders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docfill",
			Name:      "preview_renders_total",
			Help:      "Preview renders performed.",
		}),
		previewDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docfill",
			Name:      "preview_render_duration_seconds",
			Help:      "Preview render latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		unmatchedTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docfill",
			Name:      "preview_unmatched_tokens_total",
			Help:      "Template tokens removed because no value matched.",
		}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docfill",
			Name:      "backend_calls_total",
			Help:      "Document backend calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docfill",
			Name:      "backend_call_duration_seconds",
			Help:      "Document backend call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		dropPayloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docfill",
			Name:      "drop_payloads_total",
			Help:      "Drag and drop payloads by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docfill",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docfill",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.previewRenders,
		m.previewDuration,
		m.unmatchedTokens,
		m.backendCalls,
		m.backendDuration,
		m.dropPayloads,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObservePreview records one render.
func (m *Metrics) ObservePreview(elapsed time.Duration, unmatched int) {
	m.previewRenders.Inc()
	m.previewDuration.Observe(elapsed.Seconds())
	if unmatched > 0 {
		m.unmatchedTokens.Add(float64(unmatched))
	}
}

// ObserveBackend records one backend call. Its signature matches
// apiclient.Observer.
func (m *Metrics) ObserveBackend(op string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.backendCalls.WithLabelValues(op, outcome).Inc()
	m.backendDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveDrop records whether a drag payload was applied.
func (m *Metrics) ObserveDrop(applied bool) {
	result := "applied"
	if !applied {
		result = "rejected"
	}
	m.dropPayloads.WithLabelValues(result).Inc()
}

// ObserveHTTP records one served request. route should be the route
// pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
