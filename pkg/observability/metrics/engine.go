package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache outcome labels.
const (
	CacheHit          = "hit"
	CacheStale        = "stale"
	CacheMiss         = "miss"
	CacheShared       = "hit_shared"
	CacheRefresh      = "refresh"
	CacheRefreshError = "refresh_error"
	CacheRefreshSkip  = "refresh_throttled"
	CacheError        = "error"
)

// Engine groups the collectors used by the cache, fetcher, resolver and validator.
// A nil *Engine is valid and records nothing.
type Engine struct {
	cacheResults     *prometheus.CounterVec
	fetchLatency     *prometheus.HistogramVec
	resolverDefaults *prometheus.CounterVec
	validationRuns   *prometheus.CounterVec
}

// NewEngine creates the engine collectors and registers them on reg when reg is non-nil.
func NewEngine(reg prometheus.Registerer) *Engine {
	e := &Engine{
		cacheResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portalcfg_cache_results_total",
				Help: "Config cache lookups by domain and outcome.",
			},
			[]string{"domain", "result"},
		),
		fetchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portalcfg_fetch_duration_seconds",
				Help:    "Config source round trip latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"domain", "outcome"},
		),
		resolverDefaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portalcfg_resolver_defaults_total",
				Help: "Resolutions answered with compiled-in defaults, by reason.",
			},
			[]string{"domain", "reason"},
		),
		validationRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portalcfg_validation_runs_total",
				Help: "Validation calls by entity type and the path that produced the result.",
			},
			[]string{"entity_type", "source"},
		),
	}
	if reg != nil {
		reg.MustRegister(e.cacheResults, e.fetchLatency, e.resolverDefaults, e.validationRuns)
	}
	return e
}

func (e *Engine) CacheResult(domain, result string) {
	if e == nil {
		return
	}
	e.cacheResults.WithLabelValues(domain, result).Inc()
}

func (e *Engine) ObserveFetch(domain, outcome string, d time.Duration) {
	if e == nil {
		return
	}
	e.fetchLatency.WithLabelValues(domain, outcome).Observe(d.Seconds())
}

func (e *Engine) ResolverDefault(domain, reason string) {
	if e == nil {
		return
	}
	e.resolverDefaults.WithLabelValues(domain, reason).Inc()
}

func (e *Engine) ValidationRun(entityType, source string) {
	if e == nil {
		return
	}
	e.validationRuns.WithLabelValues(entityType, source).Inc()
}
