// Package metrics provides Prometheus metrics for the dataset service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload and report outcomes.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics holds all Prometheus metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	uploadsTotal     *prometheus.CounterVec
	rowsIngested     prometheus.Counter
	evictionsTotal   prometheus.Counter
	reportsTotal     *prometheus.CounterVec
	reportDuration   prometheus.Histogram
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

// New creates and registers the metrics. Each call uses its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		uploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equipment_uploads_total",
				Help: "Total number of dataset uploads by result",
			},
			[]string{"result"},
		),
		rowsIngested: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "equipment_rows_ingested_total",
				Help: "Total number of equipment rows accepted",
			},
		),
		evictionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "equipment_datasets_evicted_total",
				Help: "Datasets removed by the retention policy",
			},
		),
		reportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equipment_reports_total",
				Help: "Total number of rendered reports by result",
			},
			[]string{"result"},
		),
		reportDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "equipment_report_render_seconds",
				Help:    "Report render duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equipment_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "equipment_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		requestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "equipment_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
	}
}

// RecordUpload counts an upload attempt; rows is only added on success.
func (m *Metrics) RecordUpload(result string, rows int) {
	m.uploadsTotal.WithLabelValues(result).Inc()
	if result == ResultOK {
		m.rowsIngested.Add(float64(rows))
	}
}

// RecordEvictions counts datasets dropped by retention.
func (m *Metrics) RecordEvictions(n int) {
	m.evictionsTotal.Add(float64(n))
}

// RecordReport records one render.
func (m *Metrics) RecordReport(result string, duration time.Duration) {
	m.reportsTotal.WithLabelValues(result).Inc()
	m.reportDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncRequestsInFlight increments the in-flight requests gauge.
func (m *Metrics) IncRequestsInFlight() {
	m.requestsInFlight.Inc()
}

// DecRequestsInFlight decrements the in-flight requests gauge.
func (m *Metrics) DecRequestsInFlight() {
	m.requestsInFlight.Dec()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
