package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// containers inspected, labelled by outcome (accepted, rejected, failed)
	ContainerCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addiscovery_containers_total",
			Help: "Total candidate ad containers inspected",
		},
		[]string{"outcome"},
	)

	// records emitted per discovery mode
	RecordCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addiscovery_records_total",
			Help: "Total ad records emitted",
		},
		[]string{"mode"},
	)

	// page loads labelled by loader and status
	PageLoadCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addiscovery_page_loads_total",
			Help: "Total ad library page loads",
		},
		[]string{"loader", "status"},
	)

	// page load latency in seconds
	PageLoadLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "addiscovery_page_load_duration_seconds",
			Help:    "Histogram of page load latencies",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"loader"},
	)

	// number of advertisers not seen in any earlier run
	NewCompetitorCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "addiscovery_new_competitors_total",
			Help: "Total advertisers discovered for the first time",
		},
	)

	// engagement match outcomes by source
	EngagementMatchCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addiscovery_engagement_matches_total",
			Help: "Total engagement match outcomes",
		},
		[]string{"source"},
	)

	// number of errors persisting records
	PersistErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "addiscovery_persist_errors_total",
			Help: "Total record persistence errors",
		},
	)
)

func init() {
	// register all metrics
	prometheus.MustRegister(
		ContainerCount,
		RecordCount,
		PageLoadCount,
		PageLoadLatency,
		NewCompetitorCount,
		EngagementMatchCount,
		PersistErrors,
	)
}
