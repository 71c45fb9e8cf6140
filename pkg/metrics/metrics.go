package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the HTTP layer and the
// dubbing pipeline.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	pipelineOperationsTotal   *prometheus.CounterVec
	pipelineOperationDuration *prometheus.HistogramVec

	externalCallsTotal *prometheus.CounterVec

	rateLimitRejectedTotal prometheus.Counter
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers collectors on the given registerer; tests pass
// a fresh registry to avoid duplicate-registration panics.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		pipelineOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dubbing_pipeline_operations_total",
				Help: "Pipeline operations by kind and outcome",
			},
			[]string{"operation", "outcome"},
		),
		pipelineOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dubbing_pipeline_operation_duration_seconds",
				Help:    "Pipeline operation duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
		externalCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_calls_total",
				Help: "Calls to external TTS and analysis services",
			},
			[]string{"service", "outcome"},
		),
		rateLimitRejectedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_limit_rejected_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
	}
}

// RecordHTTPRequest records one finished HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, seconds float64) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordPipelineOperation records one extract/analyze/tts run.
func (m *Metrics) RecordPipelineOperation(operation string, err error, seconds float64) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.pipelineOperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.pipelineOperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordExternalCall records one call to OpenAI or ChatterBox.
func (m *Metrics) RecordExternalCall(service string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.externalCallsTotal.WithLabelValues(service, outcome).Inc()
}

// RecordRateLimitRejection counts one 429 response.
func (m *Metrics) RecordRateLimitRejection() {
	m.rateLimitRejectedTotal.Inc()
}
