package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/periodledger/internal/domain"
)

const namespace = "periodledger"

// Metrics holds all Prometheus metrics. It implements usecase.Observer.
type Metrics struct {
	// Ledger metrics
	EntriesApplied  *prometheus.CounterVec
	EntriesRejected *prometheus.CounterVec
	EntriesReversed prometheus.Counter
	ApplyDuration   *prometheus.HistogramVec

	// Period metrics
	PeriodsClosed prometheus.Counter

	// Reconciliation metrics
	ReconciliationRuns  prometheus.Counter
	ReconciliationItems *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		EntriesApplied: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_applied_total",
				Help:      "Total ledger entries applied by transaction class",
			},
			[]string{"class"},
		),
		EntriesRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_rejected_total",
				Help:      "Total ledger entries rejected by reason",
			},
			[]string{"reason"},
		),
		EntriesReversed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_reversed_total",
			Help:      "Total ledger entries reversed",
		}),
		ApplyDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "apply_duration_seconds",
				Help:      "Duration of entry application including locking",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"class"},
		),

		PeriodsClosed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "periods_closed_total",
			Help:      "Total account periods closed",
		}),

		ReconciliationRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_runs_total",
			Help:      "Total statement reconciliation runs",
		}),
		ReconciliationItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciliation_items_total",
				Help:      "Statement lines and entries by reconciliation outcome",
			},
			[]string{"outcome"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
	}
}

// EntryApplied records a committed entry.
func (m *Metrics) EntryApplied(class domain.TransactionClass, elapsed time.Duration) {
	m.EntriesApplied.WithLabelValues(string(class)).Inc()
	m.ApplyDuration.WithLabelValues(string(class)).Observe(elapsed.Seconds())
}

// EntryRejected records an entry that was not applied.
func (m *Metrics) EntryRejected(reason string) {
	m.EntriesRejected.WithLabelValues(reason).Inc()
}

// EntryReversed records a committed reversal.
func (m *Metrics) EntryReversed() {
	m.EntriesReversed.Inc()
}

// PeriodClosed records a closed period.
func (m *Metrics) PeriodClosed() {
	m.PeriodsClosed.Inc()
}

// StatementReconciled records the outcome counts of one reconciliation run.
func (m *Metrics) StatementReconciled(matched, unmatchedStatement, unmatchedLedger int) {
	m.ReconciliationRuns.Inc()
	m.ReconciliationItems.WithLabelValues("matched").Add(float64(matched))
	m.ReconciliationItems.WithLabelValues("unmatched_statement").Add(float64(unmatchedStatement))
	m.ReconciliationItems.WithLabelValues("unmatched_ledger").Add(float64(unmatchedLedger))
}

// ObserveHTTP records one finished HTTP request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
