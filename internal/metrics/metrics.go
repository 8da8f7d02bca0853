// Package metrics exposes Prometheus collectors for data loading and the LLM page.
//
// Metrics are registered on the default registry at init time:
//
//	metrics.SourceLoads.WithLabelValues("eventos", metrics.ResultOK).Inc()
//	timer := metrics.NewTimer()
//	defer metrics.SourceLoadDuration.WithLabelValues("eventos").Observe(timer.Seconds())
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultHit   = "hit"
	ResultMiss  = "miss"
)

var (
	// SourceLoads counts source fetches by source and result.
	SourceLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taboleiro",
		Name:      "source_loads_total",
		Help:      "Data source loads by source and result.",
	}, []string{"source", "result"})

	// SourceLoadDuration observes fetch latency in seconds.
	SourceLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "taboleiro",
		Name:      "source_load_duration_seconds",
		Help:      "Data source load latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	// CacheLookups counts read-through cache lookups by result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taboleiro",
		Name:      "cache_lookups_total",
		Help:      "Read-through cache lookups by result.",
	}, []string{"result"})

	// CacheInvalidations counts explicit refreshes.
	CacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taboleiro",
		Name:      "cache_invalidations_total",
		Help:      "Explicit cache invalidations.",
	})

	// LLMRequests counts calls to the LLM provider by result.
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taboleiro",
		Name:      "llm_requests_total",
		Help:      "LLM provider calls by result.",
	}, []string{"result"})
)

// Timer measures elapsed time.
type Timer struct{ start time.Time }

// NewTimer starts a timer.
func NewTimer() Timer { return Timer{start: time.Now()} }

// Seconds returns the elapsed seconds.
func (t Timer) Seconds() float64 { return time.Since(t.start).Seconds() }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Result maps an error to ResultOK or ResultError.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
