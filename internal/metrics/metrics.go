package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline step duration histogram
	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "imagekit",
			Subsystem: "pipeline",
			Name:      "step_duration_seconds",
			Help:      "Duration of each image pipeline step in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"step"},
	)

	// Terminal operation counter
	ImagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagekit",
			Name:      "images_total",
			Help:      "Total image operations by outcome",
		},
		[]string{"operation", "status"},
	)

	// HTTP request counter
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagekit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Catalog events applied by the worker
	CatalogEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagekit",
			Subsystem: "catalog",
			Name:      "events_total",
			Help:      "Image events projected into the catalog",
		},
		[]string{"type", "status"},
	)
)

// ObserveStep records the time elapsed since start for a pipeline step.
func ObserveStep(step string, start time.Time) {
	StepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}

// RecordImage records the outcome of a save or delete.
func RecordImage(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ImagesTotal.WithLabelValues(operation, status).Inc()
}

func RecordRequest(method, endpoint, status string) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
}

func RecordCatalogEvent(eventType, status string) {
	CatalogEventsTotal.WithLabelValues(eventType, status).Inc()
}
