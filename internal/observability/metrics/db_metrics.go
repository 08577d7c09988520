package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "stored_rows",
			Help: "Commitment rows stored across all report dates",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM compromisos_energia")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "stored_report_days",
			Help: "Distinct report dates stored",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM (SELECT DISTINCT anio, mes, dia FROM compromisos_energia) d")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
