package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	activityMutations     *prometheus.CounterVec
	changeLogEntries      *prometheus.CounterVec
	activityListCache     *prometheus.CounterVec
	changeFeedSubscribers prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kegiatan_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kegiatan_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kegiatan_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		activityMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kegiatan_activity_mutations_total",
			Help: "Activity create, update and delete attempts by outcome.",
		}, []string{"operation", "outcome"})

		changeLogEntries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kegiatan_change_log_entries_total",
			Help: "Committed activity change log entries by action.",
		}, []string{"action"})

		activityListCache = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kegiatan_activity_list_cache_total",
			Help: "Activity list cache lookups by result.",
		}, []string{"result"})

		changeFeedSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kegiatan_change_feed_subscribers",
			Help: "Number of live change log feed subscribers.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			activityMutations,
			changeLogEntries,
			activityListCache,
			changeFeedSubscribers,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ActivityMutations counts activity writes labelled by operation and outcome.
func ActivityMutations() *prometheus.CounterVec {
	RegisterMetrics()
	return activityMutations
}

// ChangeLogEntries counts committed change log entries per action.
func ChangeLogEntries() *prometheus.CounterVec {
	RegisterMetrics()
	return changeLogEntries
}

// ActivityListCache counts list cache hits and misses.
func ActivityListCache() *prometheus.CounterVec {
	RegisterMetrics()
	return activityListCache
}

// ChangeFeedSubscribers tracks connected feed listeners.
func ChangeFeedSubscribers() prometheus.Gauge {
	RegisterMetrics()
	return changeFeedSubscribers
}
