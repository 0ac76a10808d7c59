// Package observability exposes relay metrics to Prometheus.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gettip_requests_total",
			Help: "Total number of relay invocations by outcome",
		},
		[]string{"outcome"},
	)

	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gettip_upstream_request_duration_seconds",
			Help:    "Duration of Gemini API calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"model", "status"},
	)

	invalidKeyTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gettip_upstream_invalid_api_key_total",
			Help: "Total number of Gemini API calls rejected because of an invalid API key",
		},
	)
)

// PrometheusHooks records relay events as Prometheus metrics.
// All instances share the process-wide collectors.
type PrometheusHooks struct{}

// NewPrometheusHooks returns hooks backed by the default registry
func NewPrometheusHooks() *PrometheusHooks {
	return &PrometheusHooks{}
}

// RequestCompleted counts one finished invocation
func (h *PrometheusHooks) RequestCompleted(outcome string) {
	requestsTotal.WithLabelValues(outcome).Inc()
}

// UpstreamCompleted observes one upstream call
func (h *PrometheusHooks) UpstreamCompleted(model string, elapsed time.Duration, err error, invalidKey bool) {
	status := "success"
	if err != nil {
		status = "error"
	}
	upstreamDuration.WithLabelValues(model, status).Observe(elapsed.Seconds())
	if invalidKey {
		invalidKeyTotal.Inc()
	}
}
