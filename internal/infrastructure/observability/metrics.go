// Package observability exposes prometheus metrics for provider searches,
// image analyses and the search proxy.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can create as many as they like
type Metrics struct {
	registry *prometheus.Registry

	providerSearches *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	analyses         *prometheus.CounterVec
	proxyRequests    *prometheus.CounterVec
}

// NewMetrics creates and registers every collector
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		providerSearches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otl_provider_searches_total",
				Help: "Provider searches by outcome",
			},
			[]string{"provider", "outcome"},
		),
		providerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "otl_provider_search_duration_seconds",
				Help:    "Provider search latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otl_analyses_total",
				Help: "Image analyses by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),
		proxyRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otl_proxy_requests_total",
				Help: "Search proxy requests by network and response status",
			},
			[]string{"network", "status"},
		),
	}

	m.registry.MustRegister(
		m.providerSearches,
		m.providerDuration,
		m.analyses,
		m.proxyRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveProviderSearch implements domain.SearchObserver
func (m *Metrics) ObserveProviderSearch(provider, outcome string, elapsed time.Duration) {
	m.providerSearches.WithLabelValues(provider, outcome).Inc()
	m.providerDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveAnalysis implements domain.AnalysisObserver
func (m *Metrics) ObserveAnalysis(backend, outcome string) {
	m.analyses.WithLabelValues(backend, outcome).Inc()
}

// ObserveProxyRequest counts one proxy response
func (m *Metrics) ObserveProxyRequest(network string, status int) {
	m.proxyRequests.WithLabelValues(network, strconv.Itoa(status)).Inc()
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
