package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/factoryflow/pkg/observability"
)

const namespace = "factoryflow"

// Metrics is a Prometheus registry fed by the HTTP middleware and by the
// engine, planner and cache hooks.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	expansions     *prometheus.CounterVec
	expandDuration prometheus.Histogram
	expandDepth    prometheus.Histogram

	plans        *prometheus.CounterVec
	planItems    prometheus.Histogram
	selections   *prometheus.CounterVec
	cacheOps     *prometheus.CounterVec
	cacheWritten *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		expansions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansions_total",
			Help:      "Demand expansion runs by result.",
		}, []string{"result"}),
		expandDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "expansion_duration_seconds",
			Help:      "Demand expansion run time.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		expandDepth: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "expansion_depth",
			Help:      "Deepest level reached per expansion.",
			Buckets:   prometheus.LinearBuckets(0, 2, 16),
		}),
		plans: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Plan requests by cache status and result.",
		}, []string{"cached", "result"}),
		planItems: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_items",
			Help:      "Distinct required items per plan.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		selections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipe_selections_total",
			Help:      "Recipe selection changes by item.",
		}, []string{"item"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type and operation.",
		}, []string{"key_type", "op"}),
		cacheWritten: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
	}
}

// Register installs m as the process-wide observability hooks, replacing
// any set registered earlier.
func (m *Metrics) Register() {
	observability.SetEngineHooks(m)
	observability.SetPlannerHooks(m)
	observability.SetCacheHooks(m)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeRequest(method, route, status string, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnExpandStart implements observability.EngineHooks.
func (m *Metrics) OnExpandStart(context.Context, int, int) {}

// OnExpandComplete implements observability.EngineHooks.
func (m *Metrics) OnExpandComplete(_ context.Context, _, maxDepth int, d time.Duration, err error) {
	m.expansions.WithLabelValues(result(err)).Inc()
	m.expandDuration.Observe(d.Seconds())
	if err == nil {
		m.expandDepth.Observe(float64(maxDepth))
	}
}

// OnPlan implements observability.PlannerHooks.
func (m *Metrics) OnPlan(_ context.Context, items int, cached bool, _ time.Duration, err error) {
	m.plans.WithLabelValues(strconv.FormatBool(cached), result(err)).Inc()
	if err == nil {
		m.planItems.Observe(float64(items))
	}
}

// OnSelect implements observability.PlannerHooks.
func (m *Metrics) OnSelect(_ context.Context, item string, _ int) {
	m.selections.WithLabelValues(item).Inc()
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheWritten.WithLabelValues(keyType).Add(float64(size))
}
