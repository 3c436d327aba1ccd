package models

import "time"

// Severity captures the qualitative tier derived from a pattern confidence.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityFromConfidence maps a confidence in [0,1] onto a tier. The
// comparisons are strict: exactly 0.8 is medium, exactly 0.5 is low.
func SeverityFromConfidence(confidence float64) Severity {
	switch {
	case confidence > 0.8:
		return SeverityHigh
	case confidence > 0.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// TimeMetrics aggregates per-minute traffic statistics.
type TimeMetrics struct {
	AvgRequestsPerMinute float64 `json:"avg_requests_per_minute"`
	MaxRequestsPerMinute float64 `json:"max_requests_per_minute"`
	StdRequestsPerMinute float64 `json:"std_requests_per_minute"`
	AvgBytesPerMinute    float64 `json:"avg_bytes_per_minute"`
	MaxBytesPerMinute    float64 `json:"max_bytes_per_minute"`
	TotalDurationMinutes int     `json:"total_duration_minutes"`
	TrafficVariability   float64 `json:"traffic_variability"`
}

// SuspiciousSource is a source whose request share exceeds the volume cutoff.
type SuspiciousSource struct {
	SourceID     string  `json:"source_id"`
	RequestCount int     `json:"request_count"`
	Percentage   float64 `json:"percentage"`
	Reason       string  `json:"reason"`
}

// SourceMetrics describes how traffic is distributed across sources.
type SourceMetrics struct {
	UniqueSources         int                `json:"unique_sources"`
	TopSourceRequests     int                `json:"top_source_requests"`
	Top10SourcePercentage float64            `json:"top_10_source_percentage"`
	SourceEntropy         float64            `json:"source_entropy"`
	SourceDistribution    map[string]int     `json:"source_distribution,omitempty"`
	SuspiciousSources     []SuspiciousSource `json:"suspicious_sources,omitempty"`
}

// VolumeMetrics holds batch totals and rates against the reference window.
type VolumeMetrics struct {
	TotalRequests      int     `json:"total_requests"`
	RequestsPerSecond  float64 `json:"requests_per_second"`
	TotalBytes         int64   `json:"total_bytes"`
	AvgBytesPerRequest float64 `json:"avg_bytes_per_request"`
	BytesPerSecond     float64 `json:"bytes_per_second"`
}

// HighVolumeWindow marks a minute bucket whose request count exceeded the
// mean + 3*stddev threshold of the per-window distribution.
type HighVolumeWindow struct {
	Timestamp    time.Time `json:"timestamp"`
	RequestCount int       `json:"request_count"`
	Threshold    float64   `json:"threshold"`
}

// AnomalySummary flags DoS-indicative irregularities in a batch.
type AnomalySummary struct {
	HighVolumeWindows   []HighVolumeWindow `json:"high_volume_windows,omitempty"`
	SourceConcentration bool               `json:"source_concentration"`
	AnomalyScore        float64            `json:"anomaly_score"`
}

// MetricsReport is the full output of a traffic batch analysis. It is
// constructed fresh per call and never mutated afterwards.
type MetricsReport struct {
	TimeMetrics   TimeMetrics    `json:"time_metrics"`
	SourceMetrics SourceMetrics  `json:"source_metrics"`
	VolumeMetrics VolumeMetrics  `json:"volume_metrics"`
	Anomalies     AnomalySummary `json:"anomalies"`
	ProcessedAt   time.Time      `json:"processed_at"`
}

// PatternMatch is one signature's evaluation against a batch.
type PatternMatch struct {
	PatternName string   `json:"pattern_name"`
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
	Severity    Severity `json:"severity"`
	Indicators  []string `json:"indicators,omitempty"`
}

// PatternReport aggregates pattern matches and mitigation recommendations.
type PatternReport struct {
	DetectedPatterns []PatternMatch `json:"detected_patterns"`
	Recommendations  []string       `json:"recommendations"`
}

// FeatureRow is the per-observation feature vector used for downstream
// analysis. Optional blocks mirror the optional observation fields.
type FeatureRow struct {
	Hour              int     `json:"hour"`
	DayOfWeek         int     `json:"day_of_week"`
	Minute            int     `json:"minute"`
	HasTime           bool    `json:"has_time"`
	SourceFrequency   int     `json:"source_frequency"`
	EntropyShare      float64 `json:"entropy_share"`
	RequestSize       int64   `json:"request_size"`
	SizeNormalized    float64 `json:"size_normalized"`
	HasSize           bool    `json:"has_size"`
	RequestsPerMinute int     `json:"requests_per_minute"`
}
