// Package metrics exposes ingest counters for prometheus scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andresuchdata/rxflow/internal/domain"
)

// Ingest outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type Metrics struct {
	registry *prometheus.Registry

	ingests   *prometheus.CounterVec
	rows      *prometheus.CounterVec
	warnings  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	records   *prometheus.GaugeVec
	clears    prometheus.Counter
	cacheHits *prometheus.CounterVec
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rxflow",
			Name:      "ingests_total",
			Help:      "Uploaded report files by family and outcome.",
		}, []string{"family", "outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rxflow",
			Name:      "ingest_rows_total",
			Help:      "Spreadsheet data rows read or skipped.",
		}, []string{"family", "state"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rxflow",
			Name:      "ingest_warnings_total",
			Help:      "Cells coerced to zero while ingesting.",
		}, []string{"family"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rxflow",
			Name:      "ingest_duration_seconds",
			Help:      "Time to ingest one file end to end.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"family"}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rxflow",
			Name:      "collection_records",
			Help:      "Records currently held per report family.",
		}, []string{"family"}),
		clears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rxflow",
			Name:      "history_clears_total",
			Help:      "Bulk clears of the history collections.",
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rxflow",
			Name:      "rollup_cache_requests_total",
			Help:      "Rollup cache lookups by result.",
		}, []string{"family", "result"}),
	}
	m.registry.MustRegister(
		m.ingests, m.rows, m.warnings, m.duration, m.records, m.clears, m.cacheHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveIngest records one file's outcome. outcome may be nil on failure.
func (m *Metrics) ObserveIngest(family domain.Family, outcome *domain.IngestOutcome, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	f := family.String()
	m.duration.WithLabelValues(f).Observe(elapsed.Seconds())
	if err != nil || outcome == nil {
		m.ingests.WithLabelValues(f, OutcomeFailure).Inc()
		return
	}
	m.ingests.WithLabelValues(f, OutcomeSuccess).Inc()
	m.rows.WithLabelValues(f, "read").Add(float64(outcome.Results.RowsRead))
	m.rows.WithLabelValues(f, "skipped").Add(float64(outcome.Results.RowsSkipped))
	m.warnings.WithLabelValues(f).Add(float64(len(outcome.Warnings)))
}

// SetRecords publishes the size of a family's collection.
func (m *Metrics) SetRecords(family domain.Family, n int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(family.String()).Set(float64(n))
}

func (m *Metrics) ObserveClear() {
	if m == nil {
		return
	}
	m.clears.Inc()
}

func (m *Metrics) ObserveCache(family domain.Family, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheHits.WithLabelValues(family.String(), result).Inc()
}
