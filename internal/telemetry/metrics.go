// Package telemetry holds the Prometheus collectors exported on /metrics.
package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/starford/inkgraph/internal/apperr"
)

const namespace = "inkgraph"

var (
	// likeEvents counts applied like toggles.
	// Labels: event (like, unlike)
	likeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engagement",
		Name:      "like_events_total",
		Help:      "Like toggles applied, by resulting event",
	}, []string{"event"})

	// viewEvents counts view requests.
	// Labels: counted (true, false)
	viewEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engagement",
		Name:      "view_events_total",
		Help:      "View requests, by whether they were counted",
	}, []string{"counted"})

	// commentOps counts comment mutations.
	// Labels: op (create, update, delete), outcome (ok, invalid_input,
	// invalid_password, not_found, db_unavailable, failed)
	commentOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "comments",
		Name:      "operations_total",
		Help:      "Comment mutations, by operation and outcome",
	}, []string{"op", "outcome"})

	// graphBuildDuration measures one full corpus load plus graph build.
	graphBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "graph",
		Name:      "build_duration_seconds",
		Help:      "Time to load the corpus and build the graph",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	// corpusSkipped tracks how many documents the last load skipped.
	corpusSkipped = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "corpus",
		Name:      "skipped_documents",
		Help:      "Documents skipped by the most recent corpus load",
	})
)

// ObserveLike records an applied toggle; liked is the resulting state.
func ObserveLike(liked bool) {
	event := "unlike"
	if liked {
		event = "like"
	}
	likeEvents.WithLabelValues(event).Inc()
}

// ObserveView records a view request.
func ObserveView(counted bool) {
	label := "false"
	if counted {
		label = "true"
	}
	viewEvents.WithLabelValues(label).Inc()
}

// ObserveComment records the outcome of a comment mutation.
func ObserveComment(op string, err error) {
	commentOps.WithLabelValues(op, Outcome(err)).Inc()
}

// ObserveGraphBuild records a completed build started at start.
func ObserveGraphBuild(start time.Time, skipped int) {
	graphBuildDuration.Observe(time.Since(start).Seconds())
	corpusSkipped.Set(float64(skipped))
}

// Outcome maps err onto its error category label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, apperr.ErrInvalidPassword):
		return "invalid_password"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrUnavailable):
		return "db_unavailable"
	default:
		return "failed"
	}
}
