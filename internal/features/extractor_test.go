package features

import (
	"math"
	"testing"
	"time"

	"github.com/floodsight/floodsight-engine/internal/models"
)

func TestExtractEmptyBatch(t *testing.T) {
	if rows := Extract(models.Batch{}); rows != nil {
		t.Fatalf("expected nil for empty batch, got %v", rows)
	}
}

func TestExtractOneRowPerObservationInOrder(t *testing.T) {
	batch := models.Batch{
		{SourceID: "10.0.0.1", SizeBytes: 100, HasSize: true},
		{SourceID: "10.0.0.2", SizeBytes: 200, HasSize: true},
		{SourceID: "10.0.0.1", SizeBytes: 300, HasSize: true},
	}
	rows := Extract(batch)
	if len(rows) != len(batch) {
		t.Fatalf("expected %d rows, got %d", len(batch), len(rows))
	}
	for i, row := range rows {
		if row.RequestSize != batch[i].SizeBytes {
			t.Fatalf("row %d out of order: size %d", i, row.RequestSize)
		}
	}
	if rows[0].SourceFrequency != 2 || rows[1].SourceFrequency != 1 {
		t.Fatalf("unexpected source frequencies: %+v", rows)
	}
}

func TestExtractTimeFeatures(t *testing.T) {
	// 2026-08-24 is a Monday.
	monday := time.Date(2026, 8, 24, 14, 35, 10, 0, time.UTC)
	batch := models.Batch{
		{Timestamp: monday},
		{Timestamp: monday.Add(20 * time.Second)},
		{Timestamp: monday.Add(2 * time.Minute)},
		{},
	}
	rows := Extract(batch)

	if !rows[0].HasTime || rows[0].Hour != 14 || rows[0].Minute != 35 {
		t.Fatalf("unexpected time features: %+v", rows[0])
	}
	if rows[0].DayOfWeek != 0 {
		t.Fatalf("Monday must encode as 0, got %d", rows[0].DayOfWeek)
	}
	if rows[0].RequestsPerMinute != 2 || rows[2].RequestsPerMinute != 1 {
		t.Fatalf("unexpected per-minute counts: %+v", rows)
	}
	if rows[3].HasTime || rows[3].Hour != 0 || rows[3].RequestsPerMinute != 0 {
		t.Fatalf("timeless observation should keep zeroed time block: %+v", rows[3])
	}

	sunday := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	if got := Extract(models.Batch{{Timestamp: sunday}})[0].DayOfWeek; got != 6 {
		t.Fatalf("Sunday must encode as 6, got %d", got)
	}
}

func TestExtractEntropyShare(t *testing.T) {
	batch := models.Batch{
		{SourceID: "10.0.0.1"},
		{SourceID: "10.0.0.1"},
		{SourceID: "10.0.0.2"},
		{SourceID: "10.0.0.2"},
	}
	rows := Extract(batch)
	// Each source holds half the batch: -0.5*log2(0.5) = 0.5 bits.
	for i, row := range rows {
		if math.Abs(row.EntropyShare-0.5) > 1e-9 {
			t.Fatalf("row %d: expected entropy share 0.5, got %v", i, row.EntropyShare)
		}
	}

	solo := Extract(models.Batch{{SourceID: "10.0.0.1"}})
	if solo[0].EntropyShare != 0 {
		t.Fatalf("a sole source carries zero entropy share, got %v", solo[0].EntropyShare)
	}
}

func TestExtractSizeNormalization(t *testing.T) {
	uniform := models.Batch{
		{SizeBytes: 500, HasSize: true},
		{SizeBytes: 500, HasSize: true},
	}
	for _, row := range Extract(uniform) {
		if row.SizeNormalized != 0 {
			t.Fatalf("zero deviation must normalize to 0, got %v", row.SizeNormalized)
		}
	}

	mixed := models.Batch{
		{SizeBytes: 100, HasSize: true},
		{SizeBytes: 300, HasSize: true},
		{SourceID: "10.0.0.1"},
	}
	rows := Extract(mixed)
	// Mean 200, sample std sqrt(2)*100; the two sized rows sit at -/+ 1/sqrt(2).
	want := 1 / math.Sqrt2
	if math.Abs(rows[0].SizeNormalized+want) > 1e-9 || math.Abs(rows[1].SizeNormalized-want) > 1e-9 {
		t.Fatalf("unexpected normalized sizes: %v, %v", rows[0].SizeNormalized, rows[1].SizeNormalized)
	}
	if rows[2].HasSize || rows[2].SizeNormalized != 0 {
		t.Fatalf("unsized observation should keep zeroed size block: %+v", rows[2])
	}
}
