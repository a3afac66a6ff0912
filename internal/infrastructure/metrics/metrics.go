package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the business-level Prometheus metrics. HTTP-level request
// metrics are registered separately by the HTTP middleware.
type Metrics struct {
	// Ledger metrics
	TransactionsCreated *prometheus.CounterVec
	TransactionsVoided  prometheus.Counter
	TransfersCreated    prometheus.Counter
	TransferAmount      prometheus.Histogram

	// Snapshot metrics
	SnapshotRecomputes prometheus.Counter
	SnapshotStale      prometheus.Gauge
	SnapshotDuration   prometheus.Histogram

	// Invoice metrics
	InvoicesCreated  *prometheus.CounterVec
	InvoicesOverdue  prometheus.Counter
	PaymentsRecorded prometheus.Counter

	// Import metrics
	ImportsUploaded prometheus.Counter
	ImportItems     *prometheus.CounterVec
	ImportDuration  prometheus.Histogram

	// Reconciliation metrics
	AccountsFrozen       prometheus.Counter
	BalancesCorrected    prometheus.Counter
	ReconciliationChecks prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		TransactionsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookd_transactions_created_total",
				Help: "Total number of ledger transactions created by source",
			},
			[]string{"source"},
		),
		TransactionsVoided: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bookd_transactions_voided_total",
			Help: "Total number of ledger transactions voided",
		}),
		TransfersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bookd_transfers_created_total",
			Help: "Total number of transfers created",
		}),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookd_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		SnapshotRecomputes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bookd_snapshot_recomputes_total",
			Help: "Total number of snapshot chain recomputes",
		}),
		SnapshotStale: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bookd_snapshot_stale_ranges",
			Help: "Stale snapshot ranges seen by the last sweep",
		}),
		SnapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookd_snapshot_recompute_duration_seconds",
			Help:    "Duration of snapshot chain recomputes",
			Buckets: prometheus.DefBuckets,
		}),

		InvoicesCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookd_invoices_created_total",
				Help: "Total number of invoices created by type",
			},
			[]string{"type"},
		),
		InvoicesOverdue: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bookd_invoices_overdue_total",
			Help: "Total number of invoices marked overdue by the sweep",
		}),
		PaymentsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bookd_payments_recorded_total",
			Help: "Total number of invoice payments recorded",
		}),

		ImportsUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bookd_imports_uploaded_total",
			Help: "Total number of statement files uploaded",
		}),
		ImportItems: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookd_import_items_total",
				Help: "Total number of import items by outcome",
			},
			[]string{"outcome"},
		),
		ImportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookd_import_execute_duration_seconds",
			Help:    "Duration of import executions",
			Buckets: prometheus.DefBuckets,
		}),

		AccountsFrozen: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bookd_accounts_frozen_total",
			Help: "Total number of accounts frozen by reconciliation",
		}),
		BalancesCorrected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bookd_balances_corrected_total",
			Help: "Total number of cached balances corrected by reconciliation",
		}),
		ReconciliationChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bookd_reconciliation_checks_total",
			Help: "Total number of per-account reconciliation checks",
		}),
	}
}
