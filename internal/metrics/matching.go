package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching Prometheus metrics.
var (
	MatchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobmatch",
			Name:      "match_requests_total",
			Help:      "Total number of match requests",
		},
		[]string{"kind", "status"}, // kind: "single" / "user"
	)

	MatchProfileFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jobmatch",
			Name:      "match_profile_failures_total",
			Help:      "Profiles skipped due to embedding or search failures",
		},
	)

	MatchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobmatch",
			Name:      "match_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	VectorSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobmatch",
			Name:      "vector_search_duration_seconds",
			Help:      "Vector index KNN search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"index"}, // "title" / "description"
	)
)

var matchMetricsRegistered bool

// RegisterMatchingMetrics registers Prometheus matching metrics. Must be called once from main.
func RegisterMatchingMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(MatchRequestsTotal)
	prometheus.MustRegister(MatchProfileFailuresTotal)
	prometheus.MustRegister(MatchCacheTotal)
	prometheus.MustRegister(VectorSearchDuration)
	matchMetricsRegistered = true
}
