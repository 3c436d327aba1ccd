// Package calculator provides the pure scoring functions behind the impact
// views: attack severity, mitigation effectiveness, and business impact.
// Nothing here holds state; every function is safe to call concurrently.
package calculator

import (
	"math"

	"github.com/floodsight/floodsight-engine/internal/models"
)

// AttackSeverity scores an attack 0-10 from its traffic ratio, duration, and
// service footprint. A non-positive baseline is treated as a ratio of 1.
func AttackSeverity(trafficVolume, baselineVolume, durationMinutes float64, affectedServices int) models.SeverityAssessment {
	ratio := 1.0
	if baselineVolume > 0 {
		ratio = trafficVolume / baselineVolume
	}

	var volumeScore float64
	switch {
	case ratio > 10:
		volumeScore = 4.0
	case ratio > 5:
		volumeScore = 3.0
	case ratio > 2:
		volumeScore = 2.0
	case ratio > 1.5:
		volumeScore = 1.0
	}

	var durationScore float64
	switch {
	case durationMinutes > 240:
		durationScore = 3.0
	case durationMinutes > 60:
		durationScore = 2.0
	case durationMinutes > 15:
		durationScore = 1.0
	default:
		durationScore = 0.5
	}

	var serviceScore float64
	switch {
	case affectedServices > 5:
		serviceScore = 3.0
	case affectedServices > 2:
		serviceScore = 2.0
	case affectedServices > 0:
		serviceScore = 1.0
	}

	total := volumeScore + durationScore + serviceScore
	return models.SeverityAssessment{
		OverallSeverity: total,
		VolumeImpact:    volumeScore,
		DurationImpact:  durationScore,
		ServiceImpact:   serviceScore,
		SeverityLevel:   severityLevel(total),
	}
}

func severityLevel(score float64) models.SeverityLevel {
	switch {
	case score >= 8:
		return models.SeverityLevelCritical
	case score >= 6:
		return models.SeverityLevelHigh
	case score >= 4:
		return models.SeverityLevelMedium
	case score >= 2:
		return models.SeverityLevelLow
	default:
		return models.SeverityLevelMinimal
	}
}

// MitigationEffectiveness compares before/after snapshots metric by metric.
// Each improvement percentage is clamped to [0,100]; metric pairs missing on
// either side are skipped, and a comparison with no comparable pair returns
// an empty report rather than an error.
func MitigationEffectiveness(before, after models.MitigationSnapshot) models.MitigationReport {
	report := models.MitigationReport{}
	report.TrafficReduction = improvement(before.TrafficVolume, after.TrafficVolume)
	report.ResponseTimeImprovement = improvement(before.ResponseTime, after.ResponseTime)
	report.ErrorRateReduction = improvement(before.ErrorRate, after.ErrorRate)

	sum := 0.0
	count := 0
	for _, v := range []*float64{report.TrafficReduction, report.ResponseTimeImprovement, report.ErrorRateReduction} {
		if v != nil {
			sum += *v
			count++
		}
	}
	if count > 0 {
		overall := sum / float64(count)
		report.Overall = &overall
	}
	return report
}

// improvement computes the clamped reduction percentage, or nil when either
// side is unmeasured or the baseline is non-positive.
func improvement(before, after *float64) *float64 {
	if before == nil || after == nil || *before <= 0 {
		return nil
	}
	pct := (*before - *after) / *before * 100
	pct = math.Max(0, math.Min(100, pct))
	return &pct
}

// DefaultReputationFactor scales reputation damage against direct loss.
const DefaultReputationFactor = 0.3

// BusinessImpact converts an outage into monetary terms. Degradation of 100%
// or more counts as a full outage; reputationFactor defaults via
// DefaultReputationFactor when negative.
func BusinessImpact(hourlyRevenue, outageHours, degradationPct, reputationFactor float64) models.BusinessImpactReport {
	if reputationFactor < 0 {
		reputationFactor = DefaultReputationFactor
	}

	impactFactor := 1.0
	if degradationPct < 100 {
		impactFactor = degradationPct / 100
	}
	direct := hourlyRevenue * outageHours * impactFactor

	report := models.BusinessImpactReport{
		DirectRevenueLoss: direct,
		RecoveryCosts:     direct * 0.15,
		OpportunityCost:   direct * 0.25,
		ReputationDamage:  direct * reputationFactor,
	}
	report.TotalImpact = report.DirectRevenueLoss + report.RecoveryCosts +
		report.OpportunityCost + report.ReputationDamage
	report.ImpactPerHour = report.TotalImpact / math.Max(outageHours, 0.1)
	return report
}
