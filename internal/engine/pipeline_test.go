package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/floodsight/floodsight-engine/internal/cache"
	"github.com/floodsight/floodsight-engine/internal/models"
)

type memoryCache struct {
	data map[string][]byte
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	m.sets++
	return nil
}

func (m *memoryCache) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memoryCache) Close() error { return nil }

func attackBatch(n int) models.Batch {
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	batch := make(models.Batch, n)
	for i := range batch {
		batch[i] = models.Observation{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			SourceID:  "10.0.0.1",
			SizeBytes: 1500,
			HasSize:   true,
		}
	}
	return batch
}

func TestPipelineRunProducesReport(t *testing.T) {
	pipeline := NewPipeline(nil, nil, nil, newMemoryCache(), time.Minute)

	report, err := pipeline.Run(context.Background(), models.AnalysisRequest{Batch: attackBatch(1200)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ReportID == "" {
		t.Fatal("expected a report id")
	}
	if report.CreatedAt.IsZero() {
		t.Fatal("expected a creation timestamp")
	}
	if report.Metrics.VolumeMetrics.TotalRequests != 1200 {
		t.Fatalf("unexpected volume totals: %+v", report.Metrics.VolumeMetrics)
	}
	if len(report.Patterns.DetectedPatterns) == 0 {
		t.Fatal("concentrated attack traffic should match signatures")
	}
	if report.Severity == "" {
		t.Fatal("expected a severity summary")
	}
}

func TestPipelineServesRepeatFromCache(t *testing.T) {
	mem := newMemoryCache()
	pipeline := NewPipeline(nil, nil, nil, mem, time.Minute)

	req := models.AnalysisRequest{Batch: attackBatch(50)}
	first, err := pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ReportID != second.ReportID {
		t.Fatalf("repeat request must reuse the cached report: %s vs %s", first.ReportID, second.ReportID)
	}
	if mem.sets != 1 {
		t.Fatalf("expected a single cache store, got %d", mem.sets)
	}
}

func TestPipelineCacheKeySeparatesPatterns(t *testing.T) {
	batch := attackBatch(10)
	full := reportCacheKey(models.AnalysisRequest{Batch: batch})
	scoped := reportCacheKey(models.AnalysisRequest{Batch: batch, Pattern: "syn_flood"})
	if full == scoped {
		t.Fatal("pattern-scoped requests must not share cache entries with full scans")
	}

	other := attackBatch(10)
	other[0].SourceID = "10.0.0.2"
	if reportCacheKey(models.AnalysisRequest{Batch: other}) == full {
		t.Fatal("different batches must not collide")
	}
}

func TestPipelineUnknownPatternFails(t *testing.T) {
	pipeline := NewPipeline(nil, nil, nil, nil, 0)

	_, err := pipeline.Run(context.Background(), models.AnalysisRequest{
		Batch:   attackBatch(10),
		Pattern: "teardrop",
	})
	var unknown *models.UnknownPatternError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownPatternError, got %v", err)
	}
}

func TestPipelineInvalidBatchFails(t *testing.T) {
	pipeline := NewPipeline(nil, nil, nil, nil, 0)

	batch := attackBatch(5)
	batch[2].SizeBytes = -1
	_, err := pipeline.Run(context.Background(), models.AnalysisRequest{Batch: batch})
	var invalid *models.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
}

func TestOverallSeverityTracksStrongestMatch(t *testing.T) {
	report := models.PatternReport{DetectedPatterns: []models.PatternMatch{
		{Confidence: 0.4},
		{Confidence: 0.9},
		{Confidence: 0.6},
	}}
	if got := overallSeverity(report); got != models.SeverityHigh {
		t.Fatalf("expected high, got %s", got)
	}
	if got := overallSeverity(models.PatternReport{}); got != models.SeverityLow {
		t.Fatalf("no matches should default to low, got %s", got)
	}
}
