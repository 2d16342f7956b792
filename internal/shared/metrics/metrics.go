package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	uploadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scholarship",
		Subsystem: "documents",
		Name:      "uploads_total",
		Help:      "Total document uploads accepted.",
	})
	uploadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scholarship",
		Subsystem: "documents",
		Name:      "upload_duration_seconds",
		Help:      "Upload orchestration duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
	decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scholarship",
		Subsystem: "documents",
		Name:      "decisions_total",
		Help:      "Total verification decisions by outcome.",
	}, []string{"outcome"})
	analysisOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scholarship",
		Subsystem: "analysis",
		Name:      "outcomes_total",
		Help:      "Analysis outcomes by kind (attached, skipped, failed).",
	}, []string{"outcome"})
	transitionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scholarship",
		Subsystem: "applications",
		Name:      "transitions_total",
		Help:      "Applications promoted from submitted to under_review.",
	})
)

func init() {
	registry.MustRegister(
		uploadsTotal,
		uploadDuration,
		decisionsTotal,
		analysisOutcomesTotal,
		transitionsTotal,
	)
}

// IncUpload increments the accepted-upload counter.
func IncUpload() {
	uploadsTotal.Inc()
}

// ObserveUploadSeconds records an upload orchestration duration.
func ObserveUploadSeconds(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	uploadDuration.Observe(seconds)
}

// IncDecision increments the decision counter for the given outcome.
func IncDecision(outcome string) {
	decisionsTotal.WithLabelValues(outcome).Inc()
}

// IncAnalysisOutcome increments the analysis outcome counter.
func IncAnalysisOutcome(outcome string) {
	analysisOutcomesTotal.WithLabelValues(outcome).Inc()
}

// IncTransition increments the submitted-to-under_review transition counter.
func IncTransition() {
	transitionsTotal.Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
