package models

import "time"

// AnalysisRequest carries a batch through the combined analysis pipeline.
// Pattern optionally restricts the signature scan to a single catalog entry.
type AnalysisRequest struct {
	Batch   Batch
	Pattern string
}

// AnalysisReport is the aggregated output handed to the presentation layer:
// the traffic metrics, the pattern verdicts, and a severity summary derived
// from the two.
type AnalysisReport struct {
	ReportID  string        `json:"report_id"`
	Metrics   MetricsReport `json:"metrics"`
	Patterns  PatternReport `json:"patterns"`
	Severity  Severity      `json:"severity"`
	CreatedAt time.Time     `json:"created_at"`
}
