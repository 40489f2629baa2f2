package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EntriesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logkeep_entries_appended_total",
		Help: "The total number of log entries appended to the store",
	}, []string{"level"})

	PersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logkeep_persist_failures_total",
		Help: "Total failed writes to the persistence backend",
	}, []string{"op"})

	StoreSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logkeep_store_entries",
		Help: "Number of entries currently held by the log store",
	})

	InterceptedFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logkeep_http_intercepted_failures_total",
		Help: "Outbound HTTP failures recorded by the interceptor",
	}, []string{"kind"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "logkeep_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
