// Package metrics exposes Prometheus collectors for extraction runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

const (
	MetricsNamespace = "review_ingestor"
	MetricsSubsystem = "pipeline"
)

// Metrics holds the run, link and review collectors.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec
	RunDurationSeconds prometheus.Histogram
	RunInProgress      prometheus.Gauge

	LinksTotal *prometheus.CounterVec

	ReviewsInsertedTotal  prometheus.Counter
	ReviewsDuplicateTotal prometheus.Counter
	ReviewsFilteredTotal  prometheus.Counter
	ReviewsRejectedTotal  prometheus.Counter
}

// NewMetrics creates and registers the collectors on reg, or on the default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initRunMetrics(factory)
	m.initReviewMetrics(factory)

	return m
}

func (m *Metrics) initRunMetrics(factory promauto.Factory) {
	m.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "runs_total",
			Help:      "Total number of extraction runs by outcome",
		},
		[]string{"outcome", "mode"},
	)

	m.RunDurationSeconds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "run_duration_seconds",
			Help:      "Duration of extraction runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14), // 1s to ~4.5h
		},
	)

	m.RunInProgress = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "run_in_progress",
			Help:      "1 while an extraction run holds the run register",
		},
	)

	m.LinksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "links_total",
			Help:      "Links visited by extraction runs, by outcome",
		},
		[]string{"outcome"},
	)
}

func (m *Metrics) initReviewMetrics(factory promauto.Factory) {
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      name,
			Help:      help,
		})
	}

	m.ReviewsInsertedTotal = counter("reviews_inserted_total", "Review snippets stored as new rows")
	m.ReviewsDuplicateTotal = counter("reviews_duplicate_total", "Review snippets already present")
	m.ReviewsFilteredTotal = counter("reviews_filtered_total", "Review snippets excluded by the incremental cursor")
	m.ReviewsRejectedTotal = counter("reviews_rejected_total", "Review snippets rejected for missing text")
}

func (m *Metrics) ObserveLink(outcome string) {
	m.LinksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveReviews(inserted, duplicates, filtered, rejected int) {
	m.ReviewsInsertedTotal.Add(float64(inserted))
	m.ReviewsDuplicateTotal.Add(float64(duplicates))
	m.ReviewsFilteredTotal.Add(float64(filtered))
	m.ReviewsRejectedTotal.Add(float64(rejected))
}

func (m *Metrics) RunStarted() {
	m.RunInProgress.Set(1)
}

func (m *Metrics) RunFinished(result models.RunResult) {
	outcome := "success"
	if !result.Succeeded() {
		outcome = "failure"
	}
	mode := "incremental"
	if result.FullRefresh {
		mode = "full_refresh"
	}

	m.RunInProgress.Set(0)
	m.RunsTotal.WithLabelValues(outcome, mode).Inc()
	m.RunDurationSeconds.Observe(result.Duration.Seconds())
}
