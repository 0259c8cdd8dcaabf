package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	cacheOps      *prometheus.CounterVec
	renders       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	gatherer      prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{gatherer: reg}
	m.cacheOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zippicks",
		Subsystem: "cache",
		Name:      "operations_total",
		Help:      "Cache facade operations by group and result",
	}, []string{"group", "result"})
	m.renders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zippicks",
		Subsystem: "lists",
		Name:      "renders_total",
		Help:      "List renders by outcome",
	}, []string{"outcome"})
	m.queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zippicks",
		Subsystem: "lists",
		Name:      "query_duration_seconds",
		Help:      "Datastore time per list operation",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	reg.MustRegister(m.cacheOps, m.renders, m.queryDuration)
	return m
}

// CacheResult counts a cache operation. result is hit, miss, error, set or flush.
func (m *Metrics) CacheResult(group, result string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(group, result).Inc()
}

func (m *Metrics) Render(outcome string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveQuery(operation string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
