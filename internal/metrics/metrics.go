package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eurorates"

const (
	StageFetch   = "fetch"
	StageDiff    = "diff"
	StagePersist = "persist"
)

type Metrics struct {
	SyncRunsTotal          *prometheus.CounterVec
	SyncDuration           prometheus.Histogram
	SyncRatesAddedTotal    prometheus.Counter
	SyncCurrencyFailures   *prometheus.CounterVec
	RegistryRefreshesTotal *prometheus.CounterVec

	QueriesTotal *prometheus.CounterVec
}

// NewMetrics registers all collectors in reg. Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SyncRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_runs_total",
				Help:      "Total number of rate synchronization runs by result",
			},
			[]string{"result"},
		),

		SyncDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Duration of rate synchronization runs in seconds",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),

		SyncRatesAddedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_rates_added_total",
				Help:      "Total number of rates persisted by synchronization runs",
			},
		),

		SyncCurrencyFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_currency_failures_total",
				Help:      "Total number of per-currency synchronization failures by stage",
			},
			[]string{"stage"},
		),

		RegistryRefreshesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registry_refreshes_total",
				Help:      "Total number of currency registry refreshes by result",
			},
			[]string{"result"},
		),

		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of rate queries by operation and outcome kind",
			},
			[]string{"operation", "kind"},
		),
	}
}
