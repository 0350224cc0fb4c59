// Package metrics provides measurement pipeline metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Measurement result statuses used as metric label values.
const (
	StatusCompleted  = "completed"
	StatusDegenerate = "degenerate"
	StatusFailed     = "failed"
)

// MeasurementMetrics contains Prometheus metrics for the measurement pipeline
type MeasurementMetrics struct {
	measurementsTotal   *prometheus.CounterVec
	measurementDuration prometheus.Histogram
	lastEchoTimeMs      prometheus.Gauge
	lastSpeedMps        prometheus.Gauge
	pulsesSkippedTotal  prometheus.Counter
}

// NewMeasurementMetrics creates and registers new measurement metrics
func NewMeasurementMetrics(registry *prometheus.Registry) (*MeasurementMetrics, error) {
	m := &MeasurementMetrics{
		measurementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "echotube_measurements_total",
				Help: "Total number of measurements by final status",
			},
			[]string{"status"},
		),
		measurementDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "echotube_measurement_duration_seconds",
				Help:    "Wall time of a full measurement from trigger to result",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
			},
		),
		lastEchoTimeMs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "echotube_last_echo_time_milliseconds",
				Help: "Echo delay of the most recent completed measurement",
			},
		),
		lastSpeedMps: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "echotube_last_speed_meters_per_second",
				Help: "Speed estimate of the most recent completed measurement",
			},
		),
		pulsesSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "echotube_pulses_skipped_total",
				Help: "Measurements run without a pulse because no buzzer is attached",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.measurementsTotal,
		m.measurementDuration,
		m.lastEchoTimeMs,
		m.lastSpeedMps,
		m.pulsesSkippedTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordMeasurement records the outcome and duration of one measurement.
func (m *MeasurementMetrics) RecordMeasurement(status string, durationSeconds float64) {
	m.measurementsTotal.WithLabelValues(status).Inc()
	m.measurementDuration.Observe(durationSeconds)
}

// RecordResult updates the last-result gauges.
func (m *MeasurementMetrics) RecordResult(echoTimeMs, speedMps float64) {
	m.lastEchoTimeMs.Set(echoTimeMs)
	m.lastSpeedMps.Set(speedMps)
}

// RecordPulseSkipped counts a measurement that ran in degraded no-buzzer mode.
func (m *MeasurementMetrics) RecordPulseSkipped() {
	m.pulsesSkippedTotal.Inc()
}
