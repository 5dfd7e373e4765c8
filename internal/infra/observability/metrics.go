package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	transactions    *prometheus.CounterVec
	categorizations *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "financetrack_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financetrack_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financetrack_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financetrack_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		importRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financetrack_import_rows_total",
				Help: "CSV rows processed by outcome.",
			},
			[]string{"outcome"}, // parsed | failed
		),
		transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financetrack_transactions_total",
				Help: "Transactions written by the reconciler.",
			},
			[]string{"op"}, // created | updated
		),
		categorizations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financetrack_categorizations_total",
				Help: "Categorization outcomes by source.",
			},
			[]string{"source"}, // rule | ai | none
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// AddRowsImported counts successfully normalized CSV rows.
func (m *Metrics) AddRowsImported(n int) {
	m.importRows.WithLabelValues("parsed").Add(float64(n))
}

// AddRowsFailed counts CSV rows rejected by the normalizer.
func (m *Metrics) AddRowsFailed(n int) {
	m.importRows.WithLabelValues("failed").Add(float64(n))
}

// AddTransactionsCreated counts reconciler inserts.
func (m *Metrics) AddTransactionsCreated(n int) {
	m.transactions.WithLabelValues("created").Add(float64(n))
}

// AddTransactionsUpdated counts reconciler updates.
func (m *Metrics) AddTransactionsUpdated(n int) {
	m.transactions.WithLabelValues("updated").Add(float64(n))
}

// IncrCategorization counts one categorization outcome: "rule", "ai" or "none".
func (m *Metrics) IncrCategorization(source string) {
	m.categorizations.WithLabelValues(source).Inc()
}

// ImportSnapshot is a point-in-time view of ingestion counters, served by
// the operational stats endpoint.
type ImportSnapshot struct {
	RowsParsed          float64 `json:"rows_parsed"`
	RowsFailed          float64 `json:"rows_failed"`
	TransactionsCreated float64 `json:"transactions_created"`
	TransactionsUpdated float64 `json:"transactions_updated"`
	CategorizedByRule   float64 `json:"categorized_by_rule"`
	CategorizedByAI     float64 `json:"categorized_by_ai"`
	Uncategorized       float64 `json:"uncategorized"`
}

// GetImportSnapshot gathers current counter values.
// Prometheus counters are cumulative since process start.
func (m *Metrics) GetImportSnapshot() *ImportSnapshot {
	return &ImportSnapshot{
		RowsParsed:          getCounterValue(m.importRows, "parsed"),
		RowsFailed:          getCounterValue(m.importRows, "failed"),
		TransactionsCreated: getCounterValue(m.transactions, "created"),
		TransactionsUpdated: getCounterValue(m.transactions, "updated"),
		CategorizedByRule:   getCounterValue(m.categorizations, "rule"),
		CategorizedByAI:     getCounterValue(m.categorizations, "ai"),
		Uncategorized:       getCounterValue(m.categorizations, "none"),
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
