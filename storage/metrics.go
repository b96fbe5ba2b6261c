package storage

import (
	"github.com/prometheus/client_golang/prometheus"
)

// The storage metrics are package singletons shared by every StorageAdapter
// so that many segments can be monitored within the same process.
var sms = newStorageMetrics()

// PrometheusCollectors returns all prometheus metrics for the storage package.
func PrometheusCollectors() []prometheus.Collector {
	return sms.PrometheusCollectors()
}

// namespace is the leading part of all published metrics for the storage package.
const namespace = "colstore"

const storageSubsystem = "storage"

type storageMetrics struct {
	Passes        prometheus.Counter     // Number of iteration passes started.
	Cursors       prometheus.Counter     // Number of bucket cursors handed out.
	RowsScanned   prometheus.Counter     // Number of rows advanced over by cursors.
	ColumnsOpened *prometheus.CounterVec // Number of column readers opened, by kind.
	CloseErrors   prometheus.Counter     // Number of column readers that failed to close.
}

func newStorageMetrics() *storageMetrics {
	return &storageMetrics{
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: storageSubsystem,
			Name:      "passes_total",
			Help:      "Total number of cursor iteration passes over a segment.",
		}),
		Cursors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: storageSubsystem,
			Name:      "cursors_total",
			Help:      "Total number of bucket cursors created.",
		}),
		RowsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: storageSubsystem,
			Name:      "rows_scanned_total",
			Help:      "Total number of rows advanced over by cursors.",
		}),
		ColumnsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: storageSubsystem,
			Name:      "columns_opened_total",
			Help:      "Total number of column readers opened.",
		}, []string{"kind"}),
		CloseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: storageSubsystem,
			Name:      "column_close_errors_total",
			Help:      "Total number of column readers that failed to close.",
		}),
	}
}

// PrometheusCollectors satisfies the prom.PrometheusCollector interface.
func (m *storageMetrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Passes,
		m.Cursors,
		m.RowsScanned,
		m.ColumnsOpened,
		m.CloseErrors,
	}
}
