package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeTimeout     = "timeout"
	OutcomeError       = "error"
	OutcomeBadResponse = "bad_response"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osint_searches_total",
			Help: "Total number of OSINT searches by final status",
		},
		[]string{"status"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "osint_search_duration_seconds",
			Help:    "Wall time of a full OSINT search in seconds",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 120, 300},
		},
	)

	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osint_provider_requests_total",
			Help: "Outbound calls to search, NER and AI providers",
		},
		[]string{"provider", "outcome"},
	)

	RunningSearches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "osint_running_searches",
			Help: "Searches currently in the running state",
		},
	)
)

// RecordProvider counts one outbound provider call.
func RecordProvider(provider, outcome string) {
	ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordSearch updates the search counters once a search reaches a terminal state.
func RecordSearch(status string, elapsed time.Duration) {
	SearchesTotal.WithLabelValues(status).Inc()
	SearchDuration.Observe(elapsed.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
