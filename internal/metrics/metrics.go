package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Masterlist metrics
var (
	// MasterlistPolls counts masterlist fetches by result
	MasterlistPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vcmp_masterlist_polls_total",
			Help: "Total masterlist polls by result",
		},
		[]string{"result"},
	)

	// ServersListed is the size of the current authoritative list
	ServersListed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vcmp_servers_listed",
			Help: "Number of servers in the last successful masterlist poll",
		},
	)
)

// Detail metrics
var (
	// DetailFetches counts per-server status requests by result
	DetailFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vcmp_detail_fetches_total",
			Help: "Total status API requests by result",
		},
		[]string{"result"},
	)

	// DetailFetchDuration tracks status API latency in seconds
	DetailFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vcmp_detail_fetch_duration_seconds",
			Help:    "Status API request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// DetailCacheEntries tracks cache entries by state (online/absent)
	DetailCacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vcmp_detail_cache_entries",
			Help: "Detail cache entries by state",
		},
		[]string{"state"},
	)
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
