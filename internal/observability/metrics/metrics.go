package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "commitments_"

	resultSuccess = "success"
	resultError   = "error"

	cacheHit  = "hit"
	cacheMiss = "miss"
)

var (
	registerOnce sync.Once

	pipelineRunsTotal   *prometheus.CounterVec
	pipelineRunLatency  *prometheus.HistogramVec
	pipelineStageErrors *prometheus.CounterVec

	upstreamFetchTotal   *prometheus.CounterVec
	upstreamFetchLatency *prometheus.HistogramVec

	droppedRowsTotal *prometheus.CounterVec

	reportCacheTotal    *prometheus.CounterVec
	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec
)

// Init registers reconciliation metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		pipelineRunsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pipeline_runs_total",
				Help: "Total reconciliation pipeline runs by result",
			},
			[]string{"result"},
		)
		pipelineRunLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "pipeline_run_latency_seconds",
				Help:    "Reconciliation pipeline latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		pipelineStageErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pipeline_stage_errors_total",
				Help: "Total pipeline failures by stage",
			},
			[]string{"stage"},
		)

		upstreamFetchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "upstream_fetch_total",
				Help: "Total market data requests by dataset and result",
			},
			[]string{"dataset", "result"},
		)
		upstreamFetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "upstream_fetch_latency_seconds",
				Help:    "Market data request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"dataset", "result"},
		)

		droppedRowsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dropped_rows_total",
				Help: "Rows dropped during cleaning by table and reason",
			},
			[]string{"table", "reason"},
		)

		reportCacheTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_cache_total",
				Help: "Report lookups by outcome",
			},
			[]string{"outcome"},
		)
		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			pipelineRunsTotal,
			pipelineRunLatency,
			pipelineStageErrors,
			upstreamFetchTotal,
			upstreamFetchLatency,
			droppedRowsTotal,
			reportCacheTotal,
			reportExportTotal,
			reportExportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObservePipelineRun records pipeline latency and result.
func ObservePipelineRun(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if pipelineRunsTotal != nil {
		pipelineRunsTotal.WithLabelValues(result).Inc()
	}
	if pipelineRunLatency != nil {
		pipelineRunLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncStageError increments the failure counter of a pipeline stage.
func IncStageError(stage string) {
	if stage == "" {
		stage = "unknown"
	}
	if pipelineStageErrors != nil {
		pipelineStageErrors.WithLabelValues(stage).Inc()
	}
}

// ObserveUpstreamFetch records a market data request.
func ObserveUpstreamFetch(dataset, result string, duration time.Duration) {
	if dataset == "" {
		dataset = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if upstreamFetchTotal != nil {
		upstreamFetchTotal.WithLabelValues(dataset, result).Inc()
	}
	if upstreamFetchLatency != nil {
		upstreamFetchLatency.WithLabelValues(dataset, result).Observe(duration.Seconds())
	}
}

// AddDroppedRows adds rows removed while cleaning a table.
func AddDroppedRows(table, reason string, count int) {
	if count <= 0 {
		return
	}
	if droppedRowsTotal != nil {
		droppedRowsTotal.WithLabelValues(table, reason).Add(float64(count))
	}
}

// IncReportCache counts a report lookup as hit or miss.
func IncReportCache(hit bool) {
	outcome := cacheMiss
	if hit {
		outcome = cacheHit
	}
	if reportCacheTotal != nil {
		reportCacheTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
