// Package metrics exposes prometheus counters for the edge cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway counters. All methods are nil-safe so callers
// can run without metrics wired up.
type Metrics struct {
	hits        *prometheus.CounterVec
	misses      *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	synthetic   *prometheus.CounterVec
	notModified prometheus.Counter
}

// New registers the edge-cache counters with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_cache_hits_total",
			Help: "Requests served from a cache bucket, by route.",
		}, []string{"route"}),
		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_cache_misses_total",
			Help: "Requests forwarded to the origin, by route.",
		}, []string{"route"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_cache_fallbacks_total",
			Help: "Origin failures served from a cache bucket or the offline page, by route.",
		}, []string{"route"}),
		synthetic: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_cache_synthetic_responses_total",
			Help: "Synthetic error responses produced when neither origin nor cache could serve, by status code.",
		}, []string{"status"}),
		notModified: factory.NewCounter(prometheus.CounterOpts{
			Name: "edge_cache_not_modified_total",
			Help: "Conditional requests answered with 304 Not Modified.",
		}),
	}
}

func (m *Metrics) Hit(route string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(route).Inc()
}

func (m *Metrics) Miss(route string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(route).Inc()
}

func (m *Metrics) Fallback(route string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(route).Inc()
}

func (m *Metrics) Synthetic(status string) {
	if m == nil {
		return
	}
	m.synthetic.WithLabelValues(status).Inc()
}

func (m *Metrics) NotModified() {
	if m == nil {
		return
	}
	m.notModified.Inc()
}
