package models

// SeverityLevel is the descriptive bucket for an overall severity score.
type SeverityLevel string

const (
	SeverityLevelMinimal  SeverityLevel = "Minimal"
	SeverityLevelLow      SeverityLevel = "Low"
	SeverityLevelMedium   SeverityLevel = "Medium"
	SeverityLevelHigh     SeverityLevel = "High"
	SeverityLevelCritical SeverityLevel = "Critical"
)

// SeverityAssessment is the multi-factor attack severity result.
type SeverityAssessment struct {
	OverallSeverity float64       `json:"overall_severity"`
	VolumeImpact    float64       `json:"volume_impact"`
	DurationImpact  float64       `json:"duration_impact"`
	ServiceImpact   float64       `json:"service_impact"`
	SeverityLevel   SeverityLevel `json:"severity_level"`
}

// MitigationSnapshot holds the comparable metrics captured before or after a
// mitigation step. Nil fields were not measured and are skipped during the
// comparison. The key set is closed on purpose; unknown metrics do not belong
// in the effectiveness contract.
type MitigationSnapshot struct {
	TrafficVolume *float64 `json:"traffic_volume,omitempty"`
	ResponseTime  *float64 `json:"response_time,omitempty"`
	ErrorRate     *float64 `json:"error_rate,omitempty"`
}

// MitigationReport holds per-metric improvement percentages, each clamped to
// [0,100]. Overall is nil when no metric pair was comparable.
type MitigationReport struct {
	TrafficReduction        *float64 `json:"traffic_reduction,omitempty"`
	ResponseTimeImprovement *float64 `json:"response_time_improvement,omitempty"`
	ErrorRateReduction      *float64 `json:"error_rate_reduction,omitempty"`
	Overall                 *float64 `json:"overall_effectiveness,omitempty"`
}

// BusinessImpactReport expresses attack impact in monetary terms.
type BusinessImpactReport struct {
	DirectRevenueLoss float64 `json:"direct_revenue_loss"`
	RecoveryCosts     float64 `json:"recovery_costs"`
	OpportunityCost   float64 `json:"opportunity_cost"`
	ReputationDamage  float64 `json:"reputation_damage"`
	TotalImpact       float64 `json:"total_business_impact"`
	ImpactPerHour     float64 `json:"impact_per_hour"`
}
