package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching and analysis Prometheus metrics. Processing time lives here,
// deliberately outside the score math: the score depends only on inputs.
var (
	MatchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchsvc",
			Name:      "match_requests_total",
			Help:      "Total number of match computations",
		},
		[]string{"status"}, // "ok" / "insufficient_signal"
	)

	MatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "matchsvc",
			Name:      "match_duration_seconds",
			Help:      "Match computation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	MatchScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "matchsvc",
			Name:      "match_score",
			Help:      "Distribution of overall match scores",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	AnalysisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchsvc",
			Name:      "analysis_requests_total",
			Help:      "Total number of analyzer invocations",
		},
		[]string{"modality", "provider", "status"},
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "matchsvc",
			Name:      "analysis_duration_seconds",
			Help:      "Analyzer invocation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"modality", "provider"},
	)

	BundleCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchsvc",
			Name:      "bundle_cache_total",
			Help:      "Signal bundle cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var matchMetricsRegistered bool

// RegisterMatchMetrics registers matching metrics. Must be called once from main.
func RegisterMatchMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(MatchRequestsTotal)
	prometheus.MustRegister(MatchDuration)
	prometheus.MustRegister(MatchScore)
	prometheus.MustRegister(AnalysisRequestsTotal)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(BundleCacheTotal)
	matchMetricsRegistered = true
}
