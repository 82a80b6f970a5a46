// Package prometheus exposes deckstream runtime metrics.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "deckstream"

var (
	// connectionUp reports whether the backend websocket is connected.
	connectionUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_up",
			Help:      "Whether the backend websocket connection is established",
		},
	)

	// reconnectsTotal counts reconnection attempts after a dropped link.
	reconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_reconnects_total",
			Help:      "Total number of reconnection attempts",
		},
	)

	// transcriptionsTotal counts transcription events by finality.
	transcriptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Total number of transcription events received",
		},
		[]string{"finality"}, // partial, final
	)

	// visualizationsTotal counts generated visualizations by kind.
	visualizationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visualizations_total",
			Help:      "Total number of visualizations received",
		},
		[]string{"kind"}, // svg, chart
	)

	// backendErrorsTotal counts error frames from the backend.
	backendErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Total number of error frames received from the backend",
		},
	)

	// summaryRequestsTotal counts summarization outcomes.
	summaryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_requests_total",
			Help:      "Total number of completed summarization requests",
		},
		[]string{"status"}, // ready, error
	)

	// summaryDuration is a histogram of backend summarization latency.
	summaryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_duration_seconds",
			Help:      "Backend-reported summarization latency in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// sessionsSavedTotal counts successful session saves.
	sessionsSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_saved_total",
			Help:      "Total number of successful session saves",
		},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		connectionUp,
		reconnectsTotal,
		transcriptionsTotal,
		visualizationsTotal,
		backendErrorsTotal,
		summaryRequestsTotal,
		summaryDuration,
		sessionsSavedTotal,
	}
)

// RecordConnectionState updates the connection gauge and counts
// reconnection attempts.
func RecordConnectionState(from, to string) {
	if to == "connected" {
		connectionUp.Set(1)
	} else {
		connectionUp.Set(0)
	}
	if from == "error" && to == "connecting" {
		reconnectsTotal.Inc()
	}
}

// RecordTranscription records a transcription event.
func RecordTranscription(final bool) {
	finality := "partial"
	if final {
		finality = "final"
	}
	transcriptionsTotal.WithLabelValues(finality).Inc()
}

// RecordVisualization records a generated visualization.
func RecordVisualization(kind string) {
	visualizationsTotal.WithLabelValues(kind).Inc()
}

// RecordBackendError records an error frame from the backend.
func RecordBackendError() {
	backendErrorsTotal.Inc()
}

// RecordSummaryResult records a completed summarization request.
func RecordSummaryResult(status string, elapsedSeconds float64) {
	summaryRequestsTotal.WithLabelValues(status).Inc()
	if elapsedSeconds > 0 {
		summaryDuration.Observe(elapsedSeconds)
	}
}

// RecordSessionSaved records a successful session save.
func RecordSessionSaved() {
	sessionsSavedTotal.Inc()
}
