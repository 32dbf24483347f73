package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pantrylens"

// ReceiptMetrics records receipt pipeline and HTTP measurements in a private registry
type ReceiptMetrics struct {
	registry *prometheus.Registry

	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	products         prometheus.Histogram
	linesSkipped     *prometheus.CounterVec

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
}

// NewReceiptMetrics creates and registers every collector
func NewReceiptMetrics() *ReceiptMetrics {
	registry := prometheus.NewRegistry()

	analysesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receipt",
			Name:      "analyses_total",
			Help:      "Total receipt analyses by outcome.",
		},
		[]string{"status"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "receipt",
			Name:      "analysis_duration_seconds",
			Help:      "Receipt analysis duration in seconds by outcome.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"status"},
	)
	products := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "receipt",
			Name:      "products",
			Help:      "Products extracted per successful analysis.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 40, 80},
		},
	)
	linesSkipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receipt",
			Name:      "lines_skipped_total",
			Help:      "Receipt lines that did not become products, by reason.",
		},
		[]string{"reason"},
	)
	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		},
	)

	registry.MustRegister(
		analysesTotal,
		analysisDuration,
		products,
		linesSkipped,
		requestTotal,
		requestDuration,
		requestInFlight,
	)

	return &ReceiptMetrics{
		registry:         registry,
		analysesTotal:    analysesTotal,
		analysisDuration: analysisDuration,
		products:         products,
		linesSkipped:     linesSkipped,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
	}
}

// Handler serves the Prometheus exposition format
func (m *ReceiptMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis records one finished analysis. Product counts are only
// observed for fresh successful analyses so cache hits do not skew them.
func (m *ReceiptMetrics) ObserveAnalysis(status string, duration time.Duration, products int) {
	if status == "" {
		status = "unknown"
	}
	m.analysesTotal.WithLabelValues(status).Inc()
	m.analysisDuration.WithLabelValues(status).Observe(duration.Seconds())
	if status == "success" {
		m.products.Observe(float64(products))
	}
}

func (m *ReceiptMetrics) AddSkippedLines(reason string, count int) {
	if count <= 0 {
		return
	}
	m.linesSkipped.WithLabelValues(reason).Add(float64(count))
}

// StartRequest marks a request in flight and returns the function that completes it
func (m *ReceiptMetrics) StartRequest() func(method, path string, status int) {
	start := time.Now()
	m.requestInFlight.Inc()
	return func(method, path string, status int) {
		m.requestInFlight.Dec()
		if path == "" {
			path = "unmatched"
		}
		m.requestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
