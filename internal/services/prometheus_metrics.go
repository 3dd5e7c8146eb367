package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	ingestionsTotal      *prometheus.CounterVec
	ingestionDuration    prometheus.Histogram
	ingestionRows        prometheus.Histogram
	categorizationsTotal *prometheus.CounterVec
	duplicatesTotal      prometheus.Counter
	gateRejections       prometheus.Counter
	circuitBreakerState  *prometheus.GaugeVec
	modelBatchesTotal    *prometheus.CounterVec
}

func NewPrometheusMetrics() MetricsRecorderInterface {
	return &PrometheusMetrics{
		ingestionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingestions_total",
				Help: "Total number of completed ingestion runs",
			},
			[]string{"dialect"},
		),
		ingestionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingestion_duration_milliseconds",
				Help:    "Ingestion run duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
		),
		ingestionRows: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingestion_rows",
				Help:    "Parsed rows per ingestion run",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		categorizationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "categorizations_total",
				Help: "Total categorized transactions by pipeline stage",
			},
			[]string{"source", "category"},
		),
		duplicatesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "duplicates_total",
				Help: "Total transactions flagged as duplicates",
			},
		),
		gateRejections: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gate_rejections_total",
				Help: "Total requests rejected by the admission gate",
			},
		),
		circuitBreakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"service"},
		),
		modelBatchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_batches_total",
				Help: "External model batches by outcome",
			},
			[]string{"status"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case "ingestions_total":
		m.ingestionsTotal.WithLabelValues(tags["dialect"]).Inc()
	case "categorization_total":
		m.categorizationsTotal.WithLabelValues(tags["source"], tags["category"]).Inc()
	case "duplicate_tagged":
		m.duplicatesTotal.Inc()
	case "gate_rejected":
		m.gateRejections.Inc()
	case "model_batch":
		if status := tags["status"]; status != "" {
			m.modelBatchesTotal.WithLabelValues(status).Inc()
		}
	case "circuit_breaker.open":
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(1)
	case "circuit_breaker.closed":
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(0)
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case "ingestion":
		m.ingestionDuration.Observe(float64(duration.Milliseconds()))
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case "ingestion_rows":
		m.ingestionRows.Observe(value)
	case "circuit_breaker_state":
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(value)
	}
}
