package patterns

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/floodsight/floodsight-engine/internal/models"
)

func concentratedBatch(n int) models.Batch {
	batch := make(models.Batch, n)
	for i := range batch {
		batch[i] = models.Observation{SourceID: "10.0.0.1", SizeBytes: 1500, HasSize: true}
	}
	return batch
}

func TestAnalyzeEmptyBatch(t *testing.T) {
	report := NewAnalyzer(nil).Analyze(models.Batch{})
	if len(report.DetectedPatterns) != 0 || len(report.Recommendations) != 0 {
		t.Fatalf("empty batch must yield an empty report, got %+v", report)
	}
}

func TestAnalyzePatternUnknownName(t *testing.T) {
	_, err := NewAnalyzer(nil).AnalyzePattern(concentratedBatch(10), "teardrop")
	var unknown *models.UnknownPatternError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownPatternError, got %v", err)
	}
	if unknown.Pattern != "teardrop" {
		t.Fatalf("unexpected pattern in error: %q", unknown.Pattern)
	}
}

func TestAnalyzePatternAlwaysReportsMatch(t *testing.T) {
	// Ten benign requests: the http_flood floor indicator still applies.
	report, err := NewAnalyzer(nil).AnalyzePattern(concentratedBatch(10), "http_flood")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.DetectedPatterns) != 1 {
		t.Fatalf("targeted analysis must always report its match, got %d", len(report.DetectedPatterns))
	}
	match := report.DetectedPatterns[0]
	if math.Abs(match.Confidence-0.2) > 1e-9 {
		t.Fatalf("expected floor confidence 0.2, got %v", match.Confidence)
	}
	if match.Severity != models.SeverityLow {
		t.Fatalf("expected low severity, got %s", match.Severity)
	}
	// Below the mitigation gate: general guidance only.
	if len(report.Recommendations) != 3 {
		t.Fatalf("expected the 3 general recommendations, got %v", report.Recommendations)
	}
}

func TestSynFloodConcentratedTraffic(t *testing.T) {
	report, err := NewAnalyzer(nil).AnalyzePattern(concentratedBatch(1200), "syn_flood")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	match := report.DetectedPatterns[0]
	// Volume step 0.7 and concentration 0.8 average to 0.75.
	if math.Abs(match.Confidence-0.75) > 1e-9 {
		t.Fatalf("expected confidence 0.75, got %v", match.Confidence)
	}
	if match.Severity != models.SeverityMedium {
		t.Fatalf("0.75 sits in the medium tier, got %s", match.Severity)
	}
	if len(match.Indicators) != 2 {
		t.Fatalf("expected 2 indicator strings, got %v", match.Indicators)
	}
	if match.Indicators[0] != fmt.Sprintf("Factor %d: %.2f", 1, 0.7) {
		t.Fatalf("unexpected indicator format: %q", match.Indicators[0])
	}

	// Confident match: its mitigations come before the general guidance.
	if report.Recommendations[0] != "Enable SYN cookies on servers" {
		t.Fatalf("expected syn_flood mitigations first, got %v", report.Recommendations)
	}
	if len(report.Recommendations) != 6 {
		t.Fatalf("expected 3 mitigations + 3 general, got %v", report.Recommendations)
	}
}

func TestAnalyzeRetainsOnlyConfidentMatches(t *testing.T) {
	report := NewAnalyzer(nil).Analyze(concentratedBatch(10))
	for _, match := range report.DetectedPatterns {
		if match.Confidence <= 0.3 {
			t.Fatalf("retained a weak match: %+v", match)
		}
	}
}

func TestAnalyzeBenignBatchRecommendsMonitoring(t *testing.T) {
	batch := make(models.Batch, 20)
	for i := range batch {
		batch[i] = models.Observation{SourceID: fmt.Sprintf("10.0.0.%d", i+1)}
	}
	report := NewAnalyzer(nil).Analyze(batch)
	if len(report.DetectedPatterns) != 0 {
		t.Fatalf("benign traffic should not match, got %+v", report.DetectedPatterns)
	}
	if len(report.Recommendations) != 1 || report.Recommendations[0] != noPatternRecommendation {
		t.Fatalf("unexpected recommendations: %v", report.Recommendations)
	}
}

func TestAnalyzeFullScanAmplification(t *testing.T) {
	batch := make(models.Batch, 300)
	for i := range batch {
		batch[i] = models.Observation{
			SourceID:  fmt.Sprintf("203.0.%d.%d", i/250, i%250+1),
			SizeBytes: 3000,
			HasSize:   true,
		}
	}
	report := NewAnalyzer(nil).Analyze(batch)

	var amp *models.PatternMatch
	for i := range report.DetectedPatterns {
		if report.DetectedPatterns[i].PatternName == "amplification" {
			amp = &report.DetectedPatterns[i]
		}
	}
	if amp == nil {
		t.Fatalf("expected amplification match, got %+v", report.DetectedPatterns)
	}
	if math.Abs(amp.Confidence-0.7) > 1e-9 {
		t.Fatalf("large mean packet size should score 0.7, got %v", amp.Confidence)
	}

	found := false
	for _, rec := range report.Recommendations {
		if rec == "Implement BCP38 ingress filtering" {
			found = true
		}
	}
	if !found {
		t.Fatalf("confident amplification match should surface its mitigations, got %v", report.Recommendations)
	}
}

func TestRecommendationsDeduplicated(t *testing.T) {
	recs := appendUnique([]string{"a"}, "b", "a", "", "b", "c")
	want := []string{"a", "b", "c"}
	if len(recs) != len(want) {
		t.Fatalf("expected %v, got %v", want, recs)
	}
	for i := range want {
		if recs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, recs)
		}
	}
}
