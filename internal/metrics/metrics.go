// Package metrics exposes Prometheus collectors for archiving runs.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics owns a dedicated registry so that several runs (or tests) never
// collide on the global default registerer.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
	outcomesTotal   *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayback_http_requests_total",
				Help: "Total number of HTTP requests sent, labeled by host and status code.",
			},
			[]string{"host", "code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wayback_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by host.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayback_http_retries_total",
				Help: "Total number of retried HTTP attempts, labeled by host.",
			},
			[]string{"host"},
		),
		outcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayback_urls_total",
				Help: "Total number of processed URLs, labeled by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveRequest records one HTTP exchange. A zero status means the
// exchange failed before a response arrived.
func (m *Metrics) ObserveRequest(host string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(host, code).Inc()
	m.requestDuration.WithLabelValues(host).Observe(duration.Seconds())
}

func (m *Metrics) ObserveRetry(host string) {
	m.retriesTotal.WithLabelValues(host).Inc()
}

// ObserveOutcome counts a finished URL: archived, skipped or failed.
func (m *Metrics) ObserveOutcome(outcome string) {
	m.outcomesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every collected metric to path in the text
// exposition format read by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
