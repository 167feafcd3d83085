package api

import "github.com/prometheus/client_golang/prometheus"

var (
	decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "verdict_decisions_total",
		Help: "Decisions produced, by domain and label.",
	}, []string{"domain", "label"})

	scoringDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "verdict_scoring_duration_seconds",
		Help:    "Time spent evaluating a scoring request.",
		Buckets: prometheus.DefBuckets,
	}, []string{"domain"})
)

func init() {
	prometheus.MustRegister(decisionsTotal, scoringDuration)
}
