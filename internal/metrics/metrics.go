// Package metrics bundles the Prometheus collectors for the API server.
// Everything registers on a dedicated registry so tests can construct
// instances freely without default-registry collisions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's collectors and their registry.
type Metrics struct {
	Registry         *prometheus.Registry
	AnalyzeTotal     *prometheus.CounterVec
	AnalyzeDuration  prometheus.Histogram
	EvaluateTotal    prometheus.Counter
	ScrapeErrors     *prometheus.CounterVec
	OracleCallsTotal *prometheus.CounterVec
}

// New constructs and registers all collectors on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	analyzeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyze_requests_total",
			Help: "Total analyze requests by outcome.",
		},
		[]string{"outcome"},
	)
	analyzeDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analyze_duration_seconds",
			Help:    "End-to-end analyze latency including fetch and oracle.",
			Buckets: prometheus.DefBuckets,
		},
	)
	evaluateTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "evaluate_requests_total",
			Help: "Total heuristic evaluate requests.",
		},
	)
	scrapeErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_errors_total",
			Help: "Total degraded extractions by source host.",
		},
		[]string{"host"},
	)
	oracleCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_calls_total",
			Help: "Total oracle invocations by outcome.",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(analyzeTotal, analyzeDuration, evaluateTotal, scrapeErrors, oracleCalls)

	return &Metrics{
		Registry:         registry,
		AnalyzeTotal:     analyzeTotal,
		AnalyzeDuration:  analyzeDuration,
		EvaluateTotal:    evaluateTotal,
		ScrapeErrors:     scrapeErrors,
		OracleCallsTotal: oracleCalls,
	}
}

// IncAnalyze counts an analyze request for an outcome label.
func (m *Metrics) IncAnalyze(outcome string) {
	if m == nil {
		return
	}
	m.AnalyzeTotal.WithLabelValues(outcome).Inc()
}

// ObserveAnalyzeDuration records an analyze request duration.
func (m *Metrics) ObserveAnalyzeDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.AnalyzeDuration.Observe(d.Seconds())
}

// IncEvaluate counts an evaluate request.
func (m *Metrics) IncEvaluate() {
	if m == nil {
		return
	}
	m.EvaluateTotal.Inc()
}

// IncScrapeError counts a degraded extraction for a host label.
func (m *Metrics) IncScrapeError(host string) {
	if m == nil {
		return
	}
	m.ScrapeErrors.WithLabelValues(host).Inc()
}

// IncOracleCall counts an oracle invocation for an outcome label.
func (m *Metrics) IncOracleCall(outcome string) {
	if m == nil {
		return
	}
	m.OracleCallsTotal.WithLabelValues(outcome).Inc()
}
