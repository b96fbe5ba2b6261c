package timeseries

import (
	"github.com/prometheus/client_golang/prometheus"
)

var tms = newTimeseriesMetrics()

// PrometheusCollectors returns all prometheus metrics for the timeseries
// package.
func PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		tms.Queries,
		tms.CacheHits,
		tms.CacheMisses,
		tms.Buckets,
	}
}

const (
	namespace           = "colstore"
	timeseriesSubsystem = "timeseries"
)

type timeseriesMetrics struct {
	Queries     *prometheus.CounterVec // Number of queries run, by status.
	CacheHits   prometheus.Counter     // Number of queries answered from the result cache.
	CacheMisses prometheus.Counter     // Number of queries not found in the result cache.
	Buckets     prometheus.Counter     // Number of non-empty buckets aggregated.
}

func newTimeseriesMetrics() *timeseriesMetrics {
	return &timeseriesMetrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: timeseriesSubsystem,
			Name:      "queries_total",
			Help:      "Total number of timeseries queries run.",
		}, []string{"status"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: timeseriesSubsystem,
			Name:      "result_cache_hits_total",
			Help:      "Total number of queries answered from the result cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: timeseriesSubsystem,
			Name:      "result_cache_misses_total",
			Help:      "Total number of queries missing from the result cache.",
		}),
		Buckets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: timeseriesSubsystem,
			Name:      "buckets_total",
			Help:      "Total number of non-empty buckets aggregated.",
		}),
	}
}
