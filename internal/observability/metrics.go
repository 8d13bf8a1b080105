package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kuma_document_resolutions_total",
		Help: "Document resolutions by terminal outcome.",
	}, []string{"outcome"})

	renderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kuma_render_duration_seconds",
		Help:    "Remote macro render durations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	rawFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kuma_render_raw_fallbacks_total",
		Help: "Requests served raw stored content because rendering was unavailable.",
	})

	experimentSelectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kuma_experiment_selections_total",
		Help: "Content-experiment variant selections.",
	}, []string{"experiment", "valid"})
)

// CountResolution records a document resolution by terminal outcome
// ("ok", "fallback", "redirect", "not_found", "deleted", "create").
func CountResolution(outcome string) {
	resolutionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRender records one remote render attempt.
func ObserveRender(d time.Duration, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	renderDuration.WithLabelValues(result).Observe(d.Seconds())
}

// CountRawFallback records a raw-content fallback.
func CountRawFallback() {
	rawFallbacksTotal.Inc()
}

// CountExperimentSelection records a variant selection attempt.
func CountExperimentSelection(experiment string, valid bool) {
	label := "false"
	if valid {
		label = "true"
	}
	experimentSelectionsTotal.WithLabelValues(experiment, label).Inc()
}
