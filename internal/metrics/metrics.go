// ABOUTME: Prometheus collectors for snapshot saves, appends, completion and asset cache
// ABOUTME: Uses a private registry so tests and multiple servers don't collide

package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lifeos"

// Metrics holds every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	saves        *prometheus.CounterVec
	snapshotSize prometheus.Gauge
	appends      *prometheus.CounterVec
	completion   *prometheus.GaugeVec
	cacheLookups *prometheus.CounterVec
	requests     *prometheus.CounterVec
}

// New creates and registers the collectors, including Go runtime and process metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_saves_total",
			Help:      "Snapshot writes by result.",
		}, []string{"result"}),
		snapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_bytes",
			Help:      "Size of the last encoded snapshot.",
		}),
		appends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_added_total",
			Help:      "Reading and people entries submitted, by section and outcome.",
		}, []string{"section", "outcome"}),
		completion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "completion_percent",
			Help:      "Completion gauge per section after the last save.",
		}, []string{"section"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_cache_lookups_total",
			Help:      "Static asset requests by cache result.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		m.saves,
		m.snapshotSize,
		m.appends,
		m.completion,
		m.cacheLookups,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSave records a snapshot write.
func (m *Metrics) ObserveSave(ok bool, bytes int) {
	if ok {
		m.saves.WithLabelValues("ok").Inc()
		m.snapshotSize.Set(float64(bytes))
		return
	}
	m.saves.WithLabelValues("error").Inc()
}

// ObserveAppend records a reading or people submission.
func (m *Metrics) ObserveAppend(section string, accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.appends.WithLabelValues(section, outcome).Inc()
}

// SetCompletion records a completion gauge.
func (m *Metrics) SetCompletion(section string, percent int) {
	m.completion.WithLabelValues(section).Set(float64(percent))
}

// ObserveCacheLookup records an asset request served from cache (hit) or network (miss).
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveRequest records an API response.
func (m *Metrics) ObserveRequest(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
