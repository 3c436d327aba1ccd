// Package features derives per-observation feature rows for downstream
// analysis or model training. The transform is stateless and order-preserving:
// exactly one row per input observation.
package features

import (
	"math"
	"time"

	"github.com/floodsight/floodsight-engine/internal/models"
)

// Extract builds the feature table for a batch. Blocks tied to an absent
// observation field stay zeroed with their Has flag false; a normalized size
// is reported as 0 when the size distribution has zero deviation.
func Extract(batch models.Batch) []models.FeatureRow {
	if len(batch) == 0 {
		return nil
	}

	sourceFreq := make(map[string]int)
	minuteCounts := make(map[time.Time]int)
	var sizeSum float64
	sized := 0
	for _, obs := range batch {
		if obs.HasSource() {
			sourceFreq[obs.SourceID]++
		}
		if obs.HasTimestamp() {
			minuteCounts[obs.Timestamp.Truncate(time.Minute)]++
		}
		if obs.HasSize {
			sizeSum += float64(obs.SizeBytes)
			sized++
		}
	}

	sizeMean, sizeStd := sizeStats(batch, sizeSum, sized)
	total := float64(len(batch))

	rows := make([]models.FeatureRow, len(batch))
	for i, obs := range batch {
		row := models.FeatureRow{}

		if obs.HasTimestamp() {
			row.HasTime = true
			row.Hour = obs.Timestamp.Hour()
			// Monday-based weekday encoding: Monday is 0, Sunday is 6.
			row.DayOfWeek = (int(obs.Timestamp.Weekday()) + 6) % 7
			row.Minute = obs.Timestamp.Minute()
			row.RequestsPerMinute = minuteCounts[obs.Timestamp.Truncate(time.Minute)]
		}

		if obs.HasSource() {
			freq := sourceFreq[obs.SourceID]
			row.SourceFrequency = freq
			p := float64(freq) / total
			if p > 0 {
				row.EntropyShare = -p * math.Log2(p)
			}
		}

		if obs.HasSize {
			row.HasSize = true
			row.RequestSize = obs.SizeBytes
			if sizeStd > 0 {
				row.SizeNormalized = (float64(obs.SizeBytes) - sizeMean) / sizeStd
			}
		}

		rows[i] = row
	}
	return rows
}

// sizeStats returns the mean and sample standard deviation over the sized
// observations only.
func sizeStats(batch models.Batch, sum float64, sized int) (float64, float64) {
	if sized == 0 {
		return 0, 0
	}
	mean := sum / float64(sized)
	if sized < 2 {
		return mean, 0
	}
	variance := 0.0
	for _, obs := range batch {
		if !obs.HasSize {
			continue
		}
		diff := float64(obs.SizeBytes) - mean
		variance += diff * diff
	}
	variance /= float64(sized - 1)
	return mean, math.Sqrt(variance)
}
