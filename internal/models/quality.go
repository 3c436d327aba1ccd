package models

// FieldQuality summarises completeness of one observation field.
type FieldQuality struct {
	MissingCount      int     `json:"missing_count"`
	MissingPercentage float64 `json:"missing_percentage"`
}

// QualityReport assesses completeness and consistency of a batch before
// analysis. QualityScore is 0-100.
type QualityReport struct {
	TotalRecords    int                     `json:"total_records"`
	MissingValues   map[string]FieldQuality `json:"missing_values,omitempty"`
	Anomalies       []string                `json:"anomalies,omitempty"`
	QualityScore    float64                 `json:"quality_score"`
	Recommendations []string                `json:"recommendations,omitempty"`
}
