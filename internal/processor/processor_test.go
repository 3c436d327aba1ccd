package processor

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/floodsight/floodsight-engine/internal/models"
)

func TestProcessEmptyBatch(t *testing.T) {
	report, err := NewProcessor(0).Process(models.Batch{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.VolumeMetrics.TotalRequests != 0 {
		t.Fatalf("expected zero totals, got %d", report.VolumeMetrics.TotalRequests)
	}
	if report.ProcessedAt.IsZero() {
		t.Fatal("expected processed timestamp to be set")
	}
	if len(report.Anomalies.HighVolumeWindows) != 0 || report.Anomalies.AnomalyScore != 0 {
		t.Fatalf("expected empty anomaly summary, got %+v", report.Anomalies)
	}
}

func TestProcessRejectsNegativeSize(t *testing.T) {
	batch := models.Batch{
		{SourceID: "10.0.0.1", SizeBytes: 100, HasSize: true},
		{SourceID: "10.0.0.2", SizeBytes: -5, HasSize: true},
	}
	_, err := NewProcessor(0).Process(batch)
	var invalid *models.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if invalid.Record != 1 || invalid.Field != "size_bytes" {
		t.Fatalf("unexpected error detail: %+v", invalid)
	}
}

func TestMinuteWindowsZeroFillGaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	batch := models.Batch{
		{Timestamp: base},
		{Timestamp: base.Add(30 * time.Second)},
		{Timestamp: base.Add(3 * time.Minute)},
	}

	windows := minuteWindows(batch)
	if len(windows) != 4 {
		t.Fatalf("expected 4 grid windows, got %d", len(windows))
	}
	if windows[0].count != 2 || windows[1].count != 0 || windows[2].count != 0 || windows[3].count != 1 {
		t.Fatalf("unexpected window counts: %+v", windows)
	}

	report, err := NewProcessor(0).Process(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TimeMetrics.TotalDurationMinutes != 4 {
		t.Fatalf("expected duration 4 minutes, got %d", report.TimeMetrics.TotalDurationMinutes)
	}
	if got := report.TimeMetrics.MaxRequestsPerMinute; got != 2 {
		t.Fatalf("expected max 2 requests/minute, got %v", got)
	}
}

func TestEntropyDistribution(t *testing.T) {
	if e := entropy(map[string]int{"a": 50}); e != 0 {
		t.Fatalf("single source entropy should be 0, got %v", e)
	}

	uniform := map[string]int{"a": 10, "b": 10, "c": 10, "d": 10}
	if e := entropy(uniform); math.Abs(e-2) > 1e-9 {
		t.Fatalf("uniform 4-source entropy should be 2 bits, got %v", e)
	}

	skewed := map[string]int{"a": 37, "b": 1, "c": 1, "d": 1}
	if entropy(skewed) >= entropy(uniform) {
		t.Fatal("skewed distribution should carry less entropy than uniform")
	}
}

func TestVolumeMetricsReferenceWindow(t *testing.T) {
	batch := make(models.Batch, 1800)
	for i := range batch {
		batch[i] = models.Observation{SourceID: "10.0.0.1", SizeBytes: 100, HasSize: true}
	}

	report, err := NewProcessor(30 * time.Minute).Process(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := report.VolumeMetrics.RequestsPerSecond; math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("expected 1 request/second against a 30m window, got %v", got)
	}
	if report.VolumeMetrics.TotalBytes != 180000 {
		t.Fatalf("expected 180000 total bytes, got %d", report.VolumeMetrics.TotalBytes)
	}
	if got := report.VolumeMetrics.AvgBytesPerRequest; math.Abs(got-100) > 1e-9 {
		t.Fatalf("expected 100 bytes/request, got %v", got)
	}
}

func TestHighVolumeWindowDetection(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	batch := models.Batch{}
	for m := 0; m < 30; m++ {
		for i := 0; i < 10; i++ {
			batch = append(batch, models.Observation{Timestamp: base.Add(time.Duration(m) * time.Minute)})
		}
	}
	spike := base.Add(30 * time.Minute)
	for i := 0; i < 100; i++ {
		batch = append(batch, models.Observation{Timestamp: spike})
	}

	report, err := NewProcessor(0).Process(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	windows := report.Anomalies.HighVolumeWindows
	if len(windows) != 1 {
		t.Fatalf("expected exactly one high-volume window, got %d", len(windows))
	}
	if !windows[0].Timestamp.Equal(spike) || windows[0].RequestCount != 100 {
		t.Fatalf("unexpected high-volume window: %+v", windows[0])
	}
	if windows[0].Threshold <= 10 || windows[0].Threshold >= 100 {
		t.Fatalf("threshold should fall between baseline and spike, got %v", windows[0].Threshold)
	}
}

func TestSingleWindowNeverFlagsHighVolume(t *testing.T) {
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	batch := make(models.Batch, 5000)
	for i := range batch {
		batch[i] = models.Observation{Timestamp: ts.Add(time.Duration(i%60) * time.Second)}
	}

	report, err := NewProcessor(0).Process(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Anomalies.HighVolumeWindows) != 0 {
		t.Fatal("a single-window batch has no spike baseline and must not flag windows")
	}
}

func TestConcentratedBatchScoresHigh(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	batch := models.Batch{}
	for i := 0; i < 1400; i++ {
		batch = append(batch, models.Observation{
			Timestamp: base.Add(time.Duration(i/30) * time.Minute),
			SourceID:  "10.0.0.1",
		})
	}
	for i := 0; i < 100; i++ {
		batch = append(batch, models.Observation{
			Timestamp: base.Add(time.Duration(i/30) * time.Minute),
			SourceID:  "172.16.0." + string(rune('0'+i%10)) + "." + string(rune('0'+i/10)),
		})
	}

	report, err := NewProcessor(0).Process(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.Anomalies.SourceConcentration {
		t.Fatal("93% single-source traffic must flag source concentration")
	}
	if len(report.SourceMetrics.SuspiciousSources) == 0 {
		t.Fatal("expected at least the dominant source to be suspicious")
	}
	topSuspicious := report.SourceMetrics.SuspiciousSources[0]
	if topSuspicious.SourceID != "10.0.0.1" || topSuspicious.RequestCount != 1400 {
		t.Fatalf("unexpected top suspicious source: %+v", topSuspicious)
	}
	if math.Abs(topSuspicious.Percentage-93.333333) > 0.001 {
		t.Fatalf("expected ~93.33%% share, got %v", topSuspicious.Percentage)
	}

	// Concentration (+3), low entropy (+~1.8), and raw volume (+2) combine
	// well past the midpoint of the 0-10 scale.
	score := report.Anomalies.AnomalyScore
	if score < 6 || score > 10 {
		t.Fatalf("expected composite score in (6,10], got %v", score)
	}
}

func TestAnomalyScoreSingleSourceTakesFullEntropyTerm(t *testing.T) {
	batch := make(models.Batch, 100)
	for i := range batch {
		batch[i] = models.Observation{SourceID: "10.0.0.1"}
	}

	report, err := NewProcessor(0).Process(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Concentration +3 and the full low-entropy term +2, no volume or window
	// contributions.
	if got := report.Anomalies.AnomalyScore; math.Abs(got-5) > 1e-9 {
		t.Fatalf("expected score 5.0, got %v", got)
	}
}

func TestSourceMetricsTopTenShare(t *testing.T) {
	batch := models.Batch{}
	// 12 sources: two heavy, ten light.
	for i := 0; i < 40; i++ {
		batch = append(batch, models.Observation{SourceID: "10.0.0.1"})
	}
	for i := 0; i < 40; i++ {
		batch = append(batch, models.Observation{SourceID: "10.0.0.2"})
	}
	for s := 0; s < 10; s++ {
		for i := 0; i < 2; i++ {
			batch = append(batch, models.Observation{SourceID: "192.0.2." + string(rune('a'+s))})
		}
	}

	report, err := NewProcessor(0).Process(batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sm := report.SourceMetrics
	if sm.UniqueSources != 12 {
		t.Fatalf("expected 12 unique sources, got %d", sm.UniqueSources)
	}
	if sm.TopSourceRequests != 40 {
		t.Fatalf("expected top source at 40 requests, got %d", sm.TopSourceRequests)
	}
	// Top 10 of 12 sources: 40+40+8*2 of 100 requests.
	if math.Abs(sm.Top10SourcePercentage-96) > 1e-9 {
		t.Fatalf("expected top-10 share 96%%, got %v", sm.Top10SourcePercentage)
	}
	if len(sm.SourceDistribution) != 12 {
		t.Fatalf("expected all 12 sources in the distribution, got %d", len(sm.SourceDistribution))
	}
}
