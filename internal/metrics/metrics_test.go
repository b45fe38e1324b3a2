package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.IncAnalyze("ok")
	m.IncAnalyze("ok")
	m.IncAnalyze("degraded")
	m.IncEvaluate()
	m.IncScrapeError("www.tradera.com")
	m.IncOracleCall("skipped")

	if got := testutil.ToFloat64(m.AnalyzeTotal.WithLabelValues("ok")); got != 2 {
		t.Errorf("analyze ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.AnalyzeTotal.WithLabelValues("degraded")); got != 1 {
		t.Errorf("analyze degraded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.EvaluateTotal); got != 1 {
		t.Errorf("evaluate total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ScrapeErrors.WithLabelValues("www.tradera.com")); got != 1 {
		t.Errorf("scrape errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.OracleCallsTotal.WithLabelValues("skipped")); got != 1 {
		t.Errorf("oracle calls = %v, want 1", got)
	}
}

func TestDedicatedRegistry(t *testing.T) {
	// Two instances must not collide with each other.
	a := New()
	b := New()
	a.IncAnalyze("ok")

	if got := testutil.ToFloat64(b.AnalyzeTotal.WithLabelValues("ok")); got != 0 {
		t.Errorf("second instance analyze ok = %v, want 0", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.IncAnalyze("ok")
	m.ObserveAnalyzeDuration(time.Second)
	m.IncEvaluate()
	m.IncScrapeError("host")
	m.IncOracleCall("ok")
}
