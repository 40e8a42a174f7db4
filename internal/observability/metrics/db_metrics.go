package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func registerDBMetrics(db *sql.DB, logger logrus.FieldLogger) {
	prometheus.MustRegister(collectors.NewDBStatsCollector(db, "uptime"))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "store_status_rows_estimate",
			Help: "Planner estimate of stored status polls",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COALESCE(MAX(reltuples), 0)::bigint FROM pg_class WHERE relname = 'store_status'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "stores_with_timezone",
			Help: "Stores with a configured timezone",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM stores")
		},
	))
}

func queryCount(db *sql.DB, logger logrus.FieldLogger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.WithError(err).Warn("metrics query failed")
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
