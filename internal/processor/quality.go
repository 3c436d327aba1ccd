package processor

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/floodsight/floodsight-engine/internal/models"
)

const largeGapThreshold = 10 * time.Minute

var ipv4Pattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// AssessQuality validates completeness and consistency of a batch before
// analysis: per-field missing shares, duplicate timestamps, large time gaps,
// and malformed source addresses, folded into a 0-100 quality score.
func AssessQuality(batch models.Batch) models.QualityReport {
	report := models.QualityReport{
		TotalRecords:  len(batch),
		MissingValues: make(map[string]models.FieldQuality),
	}

	if len(batch) == 0 {
		report.Recommendations = append(report.Recommendations, "No data provided for analysis")
		return report
	}

	missingTimestamps := 0
	missingSources := 0
	missingSizes := 0
	timestamps := make([]time.Time, 0, len(batch))
	invalidSources := 0
	for _, obs := range batch {
		if obs.HasTimestamp() {
			timestamps = append(timestamps, obs.Timestamp)
		} else {
			missingTimestamps++
		}
		if obs.HasSource() {
			if !ipv4Pattern.MatchString(obs.SourceID) {
				invalidSources++
			}
		} else {
			missingSources++
		}
		if !obs.HasSize {
			missingSizes++
		}
	}

	total := float64(len(batch))
	report.MissingValues["timestamp"] = models.FieldQuality{
		MissingCount:      missingTimestamps,
		MissingPercentage: float64(missingTimestamps) / total * 100,
	}
	report.MissingValues["source_id"] = models.FieldQuality{
		MissingCount:      missingSources,
		MissingPercentage: float64(missingSources) / total * 100,
	}
	report.MissingValues["size_bytes"] = models.FieldQuality{
		MissingCount:      missingSizes,
		MissingPercentage: float64(missingSizes) / total * 100,
	}

	if duplicates := duplicateTimestamps(timestamps); duplicates > 0 {
		report.Anomalies = append(report.Anomalies,
			fmt.Sprintf("Found %d duplicate timestamps", duplicates))
	}
	if gaps := largeGaps(timestamps); gaps > 0 {
		report.Anomalies = append(report.Anomalies,
			fmt.Sprintf("Found %d large time gaps (>10 minutes)", gaps))
	}
	if invalidSources > 0 {
		report.Anomalies = append(report.Anomalies,
			fmt.Sprintf("Found %d invalid IP addresses", invalidSources))
	}

	missingPenalty := 0.0
	for _, fq := range report.MissingValues {
		missingPenalty += fq.MissingPercentage
	}
	missingPenalty /= float64(len(report.MissingValues))
	anomalyPenalty := float64(len(report.Anomalies)) * 5

	report.QualityScore = 100 - missingPenalty - anomalyPenalty
	if report.QualityScore < 0 {
		report.QualityScore = 0
	}

	if report.QualityScore < 70 {
		report.Recommendations = append(report.Recommendations,
			"Data quality is below acceptable threshold")
	}
	if missingPenalty > 20 {
		report.Recommendations = append(report.Recommendations,
			"High percentage of missing values detected")
	}
	if len(report.Anomalies) > 3 {
		report.Recommendations = append(report.Recommendations,
			"Multiple data anomalies detected - review data source")
	}
	if report.QualityScore >= 90 {
		report.Recommendations = append(report.Recommendations,
			"Data quality is excellent - proceed with analysis")
	}

	return report
}

func duplicateTimestamps(timestamps []time.Time) int {
	seen := make(map[int64]int, len(timestamps))
	duplicates := 0
	for _, ts := range timestamps {
		key := ts.UnixNano()
		if seen[key] > 0 {
			duplicates++
		}
		seen[key]++
	}
	return duplicates
}

func largeGaps(timestamps []time.Time) int {
	if len(timestamps) < 2 {
		return 0
	}
	sorted := append([]time.Time(nil), timestamps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	gaps := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Sub(sorted[i-1]) > largeGapThreshold {
			gaps++
		}
	}
	return gaps
}
