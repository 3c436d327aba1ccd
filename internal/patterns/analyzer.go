package patterns

import (
	"fmt"

	"github.com/floodsight/floodsight-engine/internal/models"
)

const (
	// retainThreshold filters weak matches out of a full catalog scan.
	retainThreshold = 0.3
	// mitigateThreshold gates a match's mitigations into the recommendations.
	mitigateThreshold = 0.5
)

var generalRecommendations = []string{
	"Activate enhanced monitoring and alerting",
	"Consider enabling DDoS protection services",
	"Document incident for future analysis",
}

const noPatternRecommendation = "No specific attack patterns detected - continue normal monitoring"

// Analyzer evaluates a traffic batch against a signature catalog. It is
// stateless beyond the injected catalog and safe for concurrent use.
type Analyzer struct {
	catalog *Catalog
}

// NewAnalyzer builds an Analyzer over the given catalog; nil selects the
// default catalog.
func NewAnalyzer(catalog *Catalog) *Analyzer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Analyzer{catalog: catalog}
}

// Catalog exposes the injected signature catalog.
func (a *Analyzer) Catalog() *Catalog {
	return a.catalog
}

// Analyze scans the batch against every catalog signature, retaining matches
// above the retain threshold, and aggregates mitigation recommendations. An
// empty batch yields an empty report.
func (a *Analyzer) Analyze(batch models.Batch) models.PatternReport {
	report := models.PatternReport{}
	if len(batch) == 0 {
		return report
	}

	stats := ComputeStats(batch)
	for _, sig := range a.catalog.Signatures() {
		match := evaluate(sig, stats)
		if match.Confidence > retainThreshold {
			report.DetectedPatterns = append(report.DetectedPatterns, match)
		}
	}

	report.Recommendations = a.recommend(report.DetectedPatterns)
	return report
}

// AnalyzePattern evaluates a single named signature. The match is always
// reported regardless of confidence; an unknown name is an
// UnknownPatternError.
func (a *Analyzer) AnalyzePattern(batch models.Batch, name string) (models.PatternReport, error) {
	sig, ok := a.catalog.Get(name)
	if !ok {
		return models.PatternReport{}, &models.UnknownPatternError{Pattern: name}
	}

	report := models.PatternReport{}
	if len(batch) == 0 {
		return report, nil
	}

	match := evaluate(sig, ComputeStats(batch))
	report.DetectedPatterns = []models.PatternMatch{match}
	report.Recommendations = a.recommend(report.DetectedPatterns)
	return report, nil
}

// evaluate runs a signature's indicators and averages the applying ones into
// a confidence.
func evaluate(sig Signature, stats BatchStats) models.PatternMatch {
	match := models.PatternMatch{
		PatternName: sig.Name,
		Description: sig.Description,
		Severity:    models.SeverityLow,
	}

	sum := 0.0
	applied := 0
	for _, indicator := range sig.Indicators {
		score, applies := indicator(stats)
		if !applies {
			continue
		}
		sum += score
		applied++
		match.Indicators = append(match.Indicators,
			fmt.Sprintf("Factor %d: %.2f", applied, score))
	}
	if applied > 0 {
		match.Confidence = sum / float64(applied)
	}
	match.Severity = models.SeverityFromConfidence(match.Confidence)
	return match
}

// recommend unions the mitigations of confident matches with the general
// recommendations, deduplicated. No matches at all collapses to the single
// keep-monitoring recommendation.
func (a *Analyzer) recommend(matches []models.PatternMatch) []string {
	if len(matches) == 0 {
		return []string{noPatternRecommendation}
	}

	recommendations := make([]string, 0)
	for _, match := range matches {
		if match.Confidence <= mitigateThreshold {
			continue
		}
		if sig, ok := a.catalog.Get(match.PatternName); ok {
			recommendations = appendUnique(recommendations, sig.Mitigations...)
		}
	}
	return appendUnique(recommendations, generalRecommendations...)
}

func appendUnique(existing []string, additions ...string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec] = struct{}{}
	}
	for _, item := range additions {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		existing = append(existing, item)
		seen[item] = struct{}{}
	}
	return existing
}
