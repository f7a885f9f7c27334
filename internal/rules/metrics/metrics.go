// Package metrics exposes Prometheus metrics of the reconciliation loop.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/qiniu/ruleview/internal/rules/combine"
	"github.com/qiniu/ruleview/internal/rules/model"
)

const (
	SideDeclared  = "declared"
	SideEvaluated = "evaluated"
)

// Metrics holds the reconciliation metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	reconcileTotal    *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	combinedRules     *prometheus.GaugeVec
	fetchErrors       *prometheus.CounterVec
	snapshotAge       prometheus.Gauge
}

// New creates the metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		reconcileTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ruleview_reconcile_total",
				Help: "Total number of reconciliation passes by cache result",
			},
			[]string{"cache"},
		),
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ruleview_reconcile_duration_seconds",
			Help:    "Duration of reconciliation passes that were not served from cache",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		combinedRules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ruleview_combined_rules",
				Help: "Number of combined rules per source and match kind",
			},
			[]string{"source", "match"},
		),
		fetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ruleview_fetch_errors_total",
				Help: "Total number of failed rule fetches per source and side",
			},
			[]string{"source", "side"},
		),
		snapshotAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ruleview_snapshot_age_seconds",
			Help: "Age of the current rule snapshot at the time of the last reconciliation",
		}),
	}
	reg.MustRegister(m.reconcileTotal, m.reconcileDuration, m.combinedRules, m.fetchErrors, m.snapshotAge)
	return m
}

// ObserveReconcile records one reconciliation. Statistics are only refreshed
// on cache misses since a hit returns the same tree.
func (m *Metrics) ObserveReconcile(hit bool, elapsed time.Duration, stats combine.Stats) {
	if m == nil {
		return
	}
	if hit {
		m.reconcileTotal.WithLabelValues("hit").Inc()
		return
	}
	m.reconcileTotal.WithLabelValues("miss").Inc()
	m.reconcileDuration.Observe(elapsed.Seconds())
	m.combinedRules.Reset()
	for source, s := range stats {
		m.combinedRules.WithLabelValues(source, model.MatchBoth).Set(float64(s.Matched))
		m.combinedRules.WithLabelValues(source, model.MatchDeclaredOnly).Set(float64(s.DeclaredOnly))
		m.combinedRules.WithLabelValues(source, model.MatchEvaluatedOnly).Set(float64(s.EvaluatedOnly))
	}
}

// FetchError counts a failed fetch of one side of a source.
func (m *Metrics) FetchError(source, side string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(source, side).Inc()
}

// SnapshotAge sets the age of the snapshot that was just served.
func (m *Metrics) SnapshotAge(fetchedAt time.Time) {
	if m == nil || fetchedAt.IsZero() {
		return
	}
	m.snapshotAge.Set(time.Since(fetchedAt).Seconds())
}
