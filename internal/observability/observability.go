// Package observability provides metrics collection for the echotube application.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nstokely/echotube/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry    *prometheus.Registry
	Measurement *metrics.MeasurementMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	measurementMetrics, err := metrics.NewMeasurementMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create measurement metrics: %w", err)
	}

	return &Metrics{
		registry:    registry,
		Measurement: measurementMetrics,
	}, nil
}

// Handler returns an http.Handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
