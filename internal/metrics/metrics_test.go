package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("re-registration must be tolerated: %v", err)
	}
}

func TestObserveAnalysisNormalizesInput(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	// Unknown outcomes collapse to success and negative durations clamp to
	// zero; neither may panic.
	ObserveAnalysis("traffic", -time.Second, "weird")
	ObserveAnalysis("analyze", time.Millisecond, OutcomeError)
	ObserveBatchSize(-1)
	ObserveBatchSize(500)
	ObserveCacheLookup(true)
	ObserveCacheLookup(false)
}
