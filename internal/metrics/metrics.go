package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundlescope_analyses_total",
			Help: "Completed analyses by source",
		},
		[]string{"source"},
	)

	AnalysisFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundlescope_analysis_failures_total",
			Help: "Analysis failures by stage",
		},
		[]string{"stage"},
	)

	AgentRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundlescope_agent_requests_total",
			Help: "Requests to the local agent server",
		},
		[]string{"endpoint", "status"},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bundlescope_analysis_duration_seconds",
			Help:    "End-to-end analysis duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ChatTurns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bundlescope_chat_turns_total",
			Help: "Completed conversation turns",
		},
	)
)

func init() {
	prometheus.MustRegister(
		AnalysesTotal,
		AnalysisFailures,
		AgentRequests,
		AnalysisDuration,
		ChatTurns,
	)
}
