package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels completed analyses.
	OutcomeSuccess = "success"
	// OutcomeError labels analyses rejected or failed mid-pipeline.
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "floodsight",
			Name:      "analyses_total",
			Help:      "Total number of analyses handled, partitioned by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "floodsight",
			Name:      "analysis_seconds",
			Help:      "Analysis latency in seconds, partitioned by operation.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	batchObservations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "floodsight",
			Name:      "batch_observations",
			Help:      "Number of observations per analyzed batch.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		},
	)

	cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "floodsight",
			Name:      "report_cache_events_total",
			Help:      "Report cache lookups partitioned by result (hit or miss).",
		},
		[]string{"result"},
	)
)

// Register attaches floodsight collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		batchObservations,
		cacheHitsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and outcome for one operation.
func ObserveAnalysis(operation string, duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(operation, label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveBatchSize records the number of observations in an accepted batch.
func ObserveBatchSize(n int) {
	if n < 0 {
		n = 0
	}
	batchObservations.Observe(float64(n))
}

// ObserveCacheLookup records a report cache hit or miss.
func ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheHitsTotal.WithLabelValues(result).Inc()
}
