// Package metrics provides Prometheus instrumentation for the Vigil
// decision engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DecisionsTotal counts risk decisions by outcome.
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vigil",
			Name:      "decisions_total",
			Help:      "Total risk decisions by outcome.",
		},
		[]string{"decision"},
	)

	// DecisionLatency observes end-to-end decision latency.
	DecisionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vigil",
			Name:      "decision_latency_seconds",
			Help:      "Ingestion-to-decision latency in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .08, .1, .25, .5, 1},
		},
	)

	// LayerLatency observes per-layer evaluation latency.
	LayerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vigil",
			Name:      "layer_latency_seconds",
			Help:      "Signal layer evaluation latency in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .08, .1},
		},
		[]string{"layer"},
	)

	// LayerTimeouts counts layers that missed the join deadline.
	LayerTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vigil",
			Name:      "layer_timeouts_total",
			Help:      "Signal layer evaluations cut off by the join deadline.",
		},
		[]string{"layer"},
	)

	// AlertDeliveries counts alert delivery attempts by result.
	AlertDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vigil",
			Name:      "alert_deliveries_total",
			Help:      "Alert delivery attempts by result.",
		},
		[]string{"result"},
	)

	// EventsDropped counts decision events dropped by the async writer.
	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vigil",
			Name:      "events_dropped_total",
			Help:      "Decision events dropped due to a full write buffer.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		DecisionsTotal,
		DecisionLatency,
		LayerLatency,
		LayerTimeouts,
		AlertDeliveries,
		EventsDropped,
	)
}

// ObserveLayerLatency records one layer evaluation duration.
func ObserveLayerLatency(layer string, d time.Duration) {
	LayerLatency.WithLabelValues(layer).Observe(d.Seconds())
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
