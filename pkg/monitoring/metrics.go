// Package monitoring exposes Prometheus metrics for the codec service.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all service metrics.
type Metrics struct {
	DecodeTotal    *prometheus.CounterVec
	DecodeDuration *prometheus.HistogramVec
	EncodeTotal    *prometheus.CounterVec
	EncodeDuration *prometheus.HistogramVec
	PayloadSize    *prometheus.HistogramVec

	// TemplateFallbackTotal counts account templates resolved through a
	// legacy heuristic rather than the canonical nested form.
	TemplateFallbackTotal *prometheus.CounterVec

	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the metric vectors under namespace.
func NewMetrics(namespace string) *Metrics {
	durationBuckets := []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025}

	return &Metrics{
		DecodeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_total",
				Help:      "Total number of payload decodes",
			},
			[]string{"country", "status", "error_kind"},
		),
		DecodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "decode_duration_seconds",
				Help:      "Payload decode duration in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"country"},
		),
		EncodeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "encode_total",
				Help:      "Total number of payload encodes",
			},
			[]string{"country", "status", "error_kind"},
		),
		EncodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "encode_duration_seconds",
				Help:      "Payload encode duration in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"country"},
		),
		PayloadSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "payload_size_bytes",
				Help:      "Payload size in bytes",
				Buckets:   prometheus.ExponentialBuckets(32, 2, 6),
			},
			[]string{"direction"},
		),
		TemplateFallbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "template_fallback_total",
				Help:      "Account templates resolved through legacy heuristics",
			},
			[]string{"country", "strategy"},
		),
		HTTPRequestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests served",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5},
			},
			[]string{"method", "path"},
		),
	}
}

// ObserveDecode records one decode outcome.
func (m *Metrics) ObserveDecode(country string, err error, errorKind string, duration time.Duration, payloadBytes int) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.DecodeTotal.WithLabelValues(country, status, errorKind).Inc()
	m.DecodeDuration.WithLabelValues(country).Observe(duration.Seconds())
	m.PayloadSize.WithLabelValues("decode").Observe(float64(payloadBytes))
}

// ObserveEncode records one encode outcome.
func (m *Metrics) ObserveEncode(country string, err error, errorKind string, duration time.Duration, payloadBytes int) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EncodeTotal.WithLabelValues(country, status, errorKind).Inc()
	m.EncodeDuration.WithLabelValues(country).Observe(duration.Seconds())
	if payloadBytes > 0 {
		m.PayloadSize.WithLabelValues("encode").Observe(float64(payloadBytes))
	}
}
