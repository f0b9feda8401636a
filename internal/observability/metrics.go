package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	portionTogglesTotal   *prometheus.CounterVec
	verificationsTotal    *prometheus.CounterVec
	dashboardBuildSeconds *prometheus.HistogramVec
	progressEventsTotal   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		portionTogglesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portion_toggles_total",
			Help: "Portion completion toggles by direction.",
		}, []string{"direction"})

		verificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_verifications_total",
			Help: "Submission verifications by kind and outcome.",
		}, []string{"kind", "verified"})

		dashboardBuildSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_build_seconds",
			Help:    "Time spent fetching and aggregating a dashboard.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"dashboard"})

		progressEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_events_published_total",
			Help: "Progress events published to the message brokers.",
		}, []string{"type"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			portionTogglesTotal,
			verificationsTotal,
			dashboardBuildSeconds,
			progressEventsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// PortionToggles counts completion toggles; direction is "completed" or "reopened".
func PortionToggles() *prometheus.CounterVec {
	RegisterMetrics()
	return portionTogglesTotal
}

// SubmissionVerifications counts verification decisions.
func SubmissionVerifications() *prometheus.CounterVec {
	RegisterMetrics()
	return verificationsTotal
}

// DashboardBuild observes dashboard assembly time.
func DashboardBuild() *prometheus.HistogramVec {
	RegisterMetrics()
	return dashboardBuildSeconds
}

// ProgressEventsPublished counts events handed to the brokers.
func ProgressEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return progressEventsTotal
}
