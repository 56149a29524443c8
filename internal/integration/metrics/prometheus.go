// Package metrics exposes reconciliation metrics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

const namespace = "reconciliation"

// PrometheusMetrics implements adapter.ReconciliationMetrics.
type PrometheusMetrics struct {
	batchRuns     prometheus.Counter
	batchOutcomes *prometheus.CounterVec
	batchDuration prometheus.Histogram
	actions       *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		batchRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "runs_total",
			Help:      "Completed batch reconciliation runs.",
		}),
		batchOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "outcomes_total",
			Help:      "Transactions classified by batch runs, by resulting status.",
		}, []string{"status"}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Wall time of batch reconciliation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Reviewer actions by action and result.",
		}, []string{"action", "result"}),
	}
}

// ObserveBatch records a finished batch run.
func (m *PrometheusMetrics) ObserveBatch(result *valueobject.BatchResult, duration time.Duration) {
	m.batchRuns.Inc()
	m.batchDuration.Observe(duration.Seconds())
	if result == nil {
		return
	}

	m.batchOutcomes.WithLabelValues(string(valueobject.StatusMatched)).Add(float64(result.MatchedCount))
	m.batchOutcomes.WithLabelValues(string(valueobject.StatusToReview)).Add(float64(result.ToReviewCount))
	m.batchOutcomes.WithLabelValues(string(valueobject.StatusUnmatched)).Add(float64(result.UnmatchedCount))
	m.batchOutcomes.WithLabelValues("SKIPPED").Add(float64(result.SkippedCount))
}

// ObserveAction records a reviewer action.
func (m *PrometheusMetrics) ObserveAction(action valueobject.ReconciliationAction, outcome string) {
	m.actions.WithLabelValues(string(action), outcome).Inc()
}
