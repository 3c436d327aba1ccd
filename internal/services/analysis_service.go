package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/floodsight/floodsight-engine/internal/calculator"
	"github.com/floodsight/floodsight-engine/internal/engine"
	"github.com/floodsight/floodsight-engine/internal/features"
	"github.com/floodsight/floodsight-engine/internal/ingest"
	"github.com/floodsight/floodsight-engine/internal/metrics"
	"github.com/floodsight/floodsight-engine/internal/models"
	"github.com/floodsight/floodsight-engine/internal/patterns"
	"github.com/floodsight/floodsight-engine/internal/processor"
	"github.com/floodsight/floodsight-engine/internal/simulate"
	"github.com/floodsight/floodsight-engine/internal/utils"
)

// ErrBatchTooLarge rejects batches above the configured ceiling.
var ErrBatchTooLarge = errors.New("batch exceeds configured size limit")

// AnalysisService is the facade the transport layer talks to. It owns
// batch-size enforcement, latency accounting, and operation metrics.
type AnalysisService struct {
	logger       *slog.Logger
	pipeline     *engine.Pipeline
	processor    *processor.Processor
	analyzer     *patterns.Analyzer
	maxBatchSize int
	latencies    *utils.LatencyTracker
}

// NewAnalysisService constructs the service facade. maxBatchSize of zero
// disables the batch cap.
func NewAnalysisService(logger *slog.Logger, pipeline *engine.Pipeline, proc *processor.Processor, analyzer *patterns.Analyzer, maxBatchSize int) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if proc == nil {
		proc = processor.NewProcessor(0)
	}
	if analyzer == nil {
		analyzer = patterns.NewAnalyzer(nil)
	}
	return &AnalysisService{
		logger:       logger,
		pipeline:     pipeline,
		processor:    proc,
		analyzer:     analyzer,
		maxBatchSize: maxBatchSize,
		latencies:    utils.NewLatencyTracker(1024),
	}
}

// Analyze runs the combined pipeline: traffic metrics, signature scan, and a
// severity summary cached by batch digest.
func (s *AnalysisService) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisReport, error) {
	if s.pipeline == nil {
		return models.AnalysisReport{}, fmt.Errorf("pipeline not configured")
	}
	if err := s.checkBatchSize(req.Batch); err != nil {
		return models.AnalysisReport{}, err
	}

	start := time.Now()
	report, err := s.pipeline.Run(ctx, req)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveAnalysis("analyze", duration, metrics.OutcomeError)
		s.logger.Error("combined analysis failed", slog.Any("error", err))
		return models.AnalysisReport{}, utils.NewAppError("analyze", "combined analysis failed", err)
	}

	s.latencies.Observe(duration)
	metrics.ObserveAnalysis("analyze", duration, metrics.OutcomeSuccess)
	metrics.ObserveBatchSize(len(req.Batch))
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("analysis latency", slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}

	return report, nil
}

// AnalyzeTraffic computes the traffic metrics report for a batch.
func (s *AnalysisService) AnalyzeTraffic(ctx context.Context, batch models.Batch) (models.MetricsReport, error) {
	if err := s.checkBatchSize(batch); err != nil {
		return models.MetricsReport{}, err
	}

	start := time.Now()
	report, err := s.processor.Process(batch)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveAnalysis("traffic", duration, metrics.OutcomeError)
		return models.MetricsReport{}, utils.NewAppError("traffic", "metrics analysis failed", err)
	}
	metrics.ObserveAnalysis("traffic", duration, metrics.OutcomeSuccess)
	metrics.ObserveBatchSize(len(batch))
	return report, nil
}

// AnalyzePatterns scans a batch against the signature catalog. A non-empty
// pattern restricts the scan to that signature; an unknown name is an error.
func (s *AnalysisService) AnalyzePatterns(ctx context.Context, batch models.Batch, pattern string) (models.PatternReport, error) {
	if err := s.checkBatchSize(batch); err != nil {
		return models.PatternReport{}, err
	}

	start := time.Now()
	var (
		report models.PatternReport
		err    error
	)
	if pattern != "" {
		report, err = s.analyzer.AnalyzePattern(batch, pattern)
	} else {
		report = s.analyzer.Analyze(batch)
	}
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveAnalysis("patterns", duration, metrics.OutcomeError)
		return models.PatternReport{}, err
	}
	metrics.ObserveAnalysis("patterns", duration, metrics.OutcomeSuccess)
	return report, nil
}

// LogAnalysis is the result of running raw access-log lines through the
// combined pipeline.
type LogAnalysis struct {
	Summary ingest.ParseSummary   `json:"parse_summary"`
	Report  models.AnalysisReport `json:"report"`
}

// AnalyzeLogs parses access-log lines and runs the combined analysis on the
// surviving observations.
func (s *AnalysisService) AnalyzeLogs(ctx context.Context, lines []string, format ingest.Format) (LogAnalysis, error) {
	batch, summary, err := ingest.ParseLines(lines, format)
	if err != nil {
		return LogAnalysis{}, err
	}
	report, err := s.Analyze(ctx, models.AnalysisRequest{Batch: batch})
	if err != nil {
		return LogAnalysis{}, err
	}
	return LogAnalysis{Summary: summary, Report: report}, nil
}

// Features extracts the per-observation feature vectors.
func (s *AnalysisService) Features(ctx context.Context, batch models.Batch) ([]models.FeatureRow, error) {
	if err := s.checkBatchSize(batch); err != nil {
		return nil, err
	}
	start := time.Now()
	rows := features.Extract(batch)
	metrics.ObserveAnalysis("features", time.Since(start), metrics.OutcomeSuccess)
	return rows, nil
}

// Quality assesses batch completeness and consistency.
func (s *AnalysisService) Quality(ctx context.Context, batch models.Batch) (models.QualityReport, error) {
	if err := s.checkBatchSize(batch); err != nil {
		return models.QualityReport{}, err
	}
	start := time.Now()
	report := processor.AssessQuality(batch)
	metrics.ObserveAnalysis("quality", time.Since(start), metrics.OutcomeSuccess)
	return report, nil
}

// Simulate synthesises an attack-shaped batch for drills and demos.
func (s *AnalysisService) Simulate(ctx context.Context, pattern string, durationHours int, intensity float64, seed int64) (models.Batch, error) {
	if durationHours <= 0 {
		return nil, &models.InvalidInputError{Field: "duration_hours", Reason: "must be positive"}
	}
	if intensity <= 0 {
		return nil, &models.InvalidInputError{Field: "intensity", Reason: "must be positive"}
	}
	gen := simulate.NewGenerator(seed)
	return gen.Generate(pattern, durationHours, intensity), nil
}

// SeverityImpact scores an attack across volume, duration, and service reach.
func (s *AnalysisService) SeverityImpact(trafficVolume, baselineVolume, durationMinutes float64, affectedServices int) models.SeverityAssessment {
	return calculator.AttackSeverity(trafficVolume, baselineVolume, durationMinutes, affectedServices)
}

// MitigationImpact compares metric snapshots taken before and after a
// mitigation step.
func (s *AnalysisService) MitigationImpact(before, after models.MitigationSnapshot) models.MitigationReport {
	return calculator.MitigationEffectiveness(before, after)
}

// BusinessImpact estimates monetary losses for an outage.
func (s *AnalysisService) BusinessImpact(hourlyRevenue, outageHours, degradationPct, reputationFactor float64) models.BusinessImpactReport {
	return calculator.BusinessImpact(hourlyRevenue, outageHours, degradationPct, reputationFactor)
}

// PatternCatalog lists the signatures the analyzer knows about.
func (s *AnalysisService) PatternCatalog() []patterns.Signature {
	return s.analyzer.Catalog().Signatures()
}

// LatencyP95 returns the current p95 combined-analysis latency.
func (s *AnalysisService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

func (s *AnalysisService) checkBatchSize(batch models.Batch) error {
	if s.maxBatchSize > 0 && len(batch) > s.maxBatchSize {
		return fmt.Errorf("%w: %d observations, limit %d", ErrBatchTooLarge, len(batch), s.maxBatchSize)
	}
	return nil
}
