package processor

import (
	"math"
	"sort"
	"time"

	"github.com/floodsight/floodsight-engine/internal/models"
)

const (
	// DefaultReferenceWindow normalizes volume rates. The original behaviour
	// divides totals by a fixed hour regardless of the batch's real span, so
	// the default replicates that; callers wanting duration-aware rates pass
	// their own window.
	DefaultReferenceWindow = time.Hour

	suspiciousShareCutoff    = 0.05
	concentrationCutoffPct   = 20.0
	highTrafficSizeThreshold = 1000
)

// Processor turns a traffic batch into a MetricsReport. It holds no mutable
// state and is safe for concurrent use on independent batches.
type Processor struct {
	referenceWindow time.Duration
}

// NewProcessor returns a Processor normalizing rates against referenceWindow.
// A non-positive window selects DefaultReferenceWindow.
func NewProcessor(referenceWindow time.Duration) *Processor {
	if referenceWindow <= 0 {
		referenceWindow = DefaultReferenceWindow
	}
	return &Processor{referenceWindow: referenceWindow}
}

// Process computes time, source, volume, and anomaly metrics for a batch.
// An empty batch yields a zeroed report and no error. A malformed record
// (negative size) yields an InvalidInputError naming the record.
func (p *Processor) Process(batch models.Batch) (models.MetricsReport, error) {
	report := models.MetricsReport{ProcessedAt: time.Now().UTC()}

	if err := validate(batch); err != nil {
		return models.MetricsReport{}, err
	}
	if len(batch) == 0 {
		return report, nil
	}

	windows := minuteWindows(batch)
	counts := sourceCounts(batch)

	report.TimeMetrics = timeMetrics(windows)
	report.SourceMetrics = sourceMetrics(counts, len(batch))
	report.VolumeMetrics = p.volumeMetrics(batch)
	report.Anomalies = anomalies(batch, windows, counts)

	return report, nil
}

func validate(batch models.Batch) error {
	for i, obs := range batch {
		if obs.HasSize && obs.SizeBytes < 0 {
			return &models.InvalidInputError{
				Record: i,
				Field:  "size_bytes",
				Reason: "must be non-negative",
			}
		}
	}
	return nil
}

// window is one minute bucket on the regular grid spanning the batch.
type window struct {
	start time.Time
	count int
	bytes int64
}

// minuteWindows builds the regular 1-minute grid from the earliest to the
// latest timestamped observation, zero-filled for silent minutes so that the
// per-window statistics see gaps the way a resampled series would.
func minuteWindows(batch models.Batch) []window {
	buckets := make(map[time.Time]*window)
	var first, last time.Time
	for _, obs := range batch {
		if !obs.HasTimestamp() {
			continue
		}
		minute := obs.Timestamp.Truncate(time.Minute)
		b, ok := buckets[minute]
		if !ok {
			b = &window{start: minute}
			buckets[minute] = b
		}
		b.count++
		if obs.HasSize {
			b.bytes += obs.SizeBytes
		}
		if first.IsZero() || minute.Before(first) {
			first = minute
		}
		if last.IsZero() || minute.After(last) {
			last = minute
		}
	}
	if len(buckets) == 0 {
		return nil
	}

	grid := make([]window, 0, last.Sub(first)/time.Minute+1)
	for minute := first; !minute.After(last); minute = minute.Add(time.Minute) {
		if b, ok := buckets[minute]; ok {
			grid = append(grid, *b)
		} else {
			grid = append(grid, window{start: minute})
		}
	}
	return grid
}

func timeMetrics(windows []window) models.TimeMetrics {
	if len(windows) == 0 {
		return models.TimeMetrics{}
	}

	requestSeries := make([]float64, len(windows))
	byteSeries := make([]float64, len(windows))
	for i, w := range windows {
		requestSeries[i] = float64(w.count)
		byteSeries[i] = float64(w.bytes)
	}

	reqMean, reqStd := meanStd(requestSeries)
	byteMean, _ := meanStd(byteSeries)

	tm := models.TimeMetrics{
		AvgRequestsPerMinute: reqMean,
		MaxRequestsPerMinute: maxOf(requestSeries),
		StdRequestsPerMinute: reqStd,
		AvgBytesPerMinute:    byteMean,
		MaxBytesPerMinute:    maxOf(byteSeries),
		TotalDurationMinutes: len(windows),
	}
	if reqMean > 0 {
		tm.TrafficVariability = reqStd / reqMean
	}
	return tm
}

func sourceCounts(batch models.Batch) map[string]int {
	counts := make(map[string]int)
	for _, obs := range batch {
		if obs.HasSource() {
			counts[obs.SourceID]++
		}
	}
	return counts
}

func sourceMetrics(counts map[string]int, total int) models.SourceMetrics {
	if len(counts) == 0 {
		return models.SourceMetrics{}
	}

	ranked := rankSources(counts)

	top10 := 0
	for i, src := range ranked {
		if i >= 10 {
			break
		}
		top10 += counts[src]
	}

	distribution := make(map[string]int, 20)
	for i, src := range ranked {
		if i >= 20 {
			break
		}
		distribution[src] = counts[src]
	}

	sm := models.SourceMetrics{
		UniqueSources:         len(counts),
		TopSourceRequests:     counts[ranked[0]],
		Top10SourcePercentage: float64(top10) / float64(total) * 100,
		SourceEntropy:         entropy(counts),
		SourceDistribution:    distribution,
	}

	cutoff := float64(total) * suspiciousShareCutoff
	for _, src := range ranked {
		count := counts[src]
		if float64(count) <= cutoff {
			break
		}
		sm.SuspiciousSources = append(sm.SuspiciousSources, models.SuspiciousSource{
			SourceID:     src,
			RequestCount: count,
			Percentage:   float64(count) / float64(total) * 100,
			Reason:       "High volume source",
		})
	}
	return sm
}

func (p *Processor) volumeMetrics(batch models.Batch) models.VolumeMetrics {
	seconds := p.referenceWindow.Seconds()
	vm := models.VolumeMetrics{TotalRequests: len(batch)}
	if vm.TotalRequests > 0 {
		vm.RequestsPerSecond = float64(vm.TotalRequests) / seconds
	}

	sized := 0
	for _, obs := range batch {
		if obs.HasSize {
			vm.TotalBytes += obs.SizeBytes
			sized++
		}
	}
	if sized > 0 {
		vm.AvgBytesPerRequest = float64(vm.TotalBytes) / float64(sized)
	}
	if vm.TotalBytes > 0 {
		vm.BytesPerSecond = float64(vm.TotalBytes) / seconds
	}
	return vm
}

func anomalies(batch models.Batch, windows []window, counts map[string]int) models.AnomalySummary {
	summary := models.AnomalySummary{}

	if len(windows) >= 2 {
		series := make([]float64, len(windows))
		for i, w := range windows {
			series[i] = float64(w.count)
		}
		mean, std := meanStd(series)
		threshold := mean + 3*std
		for _, w := range windows {
			if float64(w.count) > threshold {
				summary.HighVolumeWindows = append(summary.HighVolumeWindows, models.HighVolumeWindow{
					Timestamp:    w.start,
					RequestCount: w.count,
					Threshold:    threshold,
				})
			}
		}
	}

	if len(counts) > 0 {
		top := 0
		for _, c := range counts {
			if c > top {
				top = c
			}
		}
		summary.SourceConcentration = float64(top)/float64(len(batch))*100 > concentrationCutoffPct
	}

	summary.AnomalyScore = anomalyScore(batch, counts, summary)
	return summary
}

// anomalyScore combines the anomaly signals into a 0-10 composite:
// high-volume windows cap at 3, concentration adds 3, inverted normalized
// entropy adds up to 2, and raw batch size over the high-traffic threshold
// adds 2. Single-source batches take the full low-entropy contribution.
func anomalyScore(batch models.Batch, counts map[string]int, summary models.AnomalySummary) float64 {
	score := 0.0

	if n := len(summary.HighVolumeWindows); n > 0 {
		score += math.Min(3.0, float64(n)*0.5)
	}
	if summary.SourceConcentration {
		score += 3.0
	}
	if len(counts) > 0 {
		normalized := 0.0
		if len(counts) > 1 {
			normalized = entropy(counts) / math.Log2(float64(len(counts)))
		}
		score += (1 - normalized) * 2.0
	}
	if len(batch) > highTrafficSizeThreshold {
		score += 2.0
	}

	return math.Min(10.0, score)
}

// entropy computes the Shannon entropy (base 2) of the count distribution.
func entropy(counts map[string]int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}

	e := 0.0
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		p := float64(c) / float64(total)
		e -= p * math.Log2(p)
	}
	return e
}

// rankSources orders source ids by descending count, ties broken by id so
// the ranking is deterministic.
func rankSources(counts map[string]int) []string {
	ranked := make([]string, 0, len(counts))
	for src := range counts {
		ranked = append(ranked, src)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	return ranked
}

// meanStd returns the mean and sample standard deviation (n-1 denominator)
// of the series. Fewer than two samples yield a zero deviation.
func meanStd(series []float64) (float64, float64) {
	if len(series) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	if len(series) < 2 {
		return mean, 0
	}
	variance := 0.0
	for _, v := range series {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(series) - 1)
	return mean, math.Sqrt(variance)
}

func maxOf(series []float64) float64 {
	max := 0.0
	for _, v := range series {
		if v > max {
			max = v
		}
	}
	return max
}
