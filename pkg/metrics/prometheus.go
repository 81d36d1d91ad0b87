package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pr_reviewer"

// PrometheusCollector implements the MetricsCollector interface using Prometheus
type PrometheusCollector struct {
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewPrometheusCollector registers the service metrics on the default registry
func NewPrometheusCollector() *PrometheusCollector {
	return NewPrometheusCollectorWithRegisterer(prometheus.DefaultRegisterer)
}

// NewPrometheusCollectorWithRegisterer registers the service metrics on reg
func NewPrometheusCollectorWithRegisterer(reg prometheus.Registerer) *PrometheusCollector {
	collector := &PrometheusCollector{
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}

	collector.initializeMetrics(promauto.With(reg))

	return collector
}

func (p *PrometheusCollector) initializeMetrics(factory promauto.Factory) {
	// HTTP request metrics
	p.counters["http_requests_total"] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	p.histograms["http_request_duration_seconds"] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// Completion provider metrics
	p.counters["openai_requests_total"] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "openai_requests_total",
			Help:      "Total number of completion provider requests",
		},
		[]string{"service", "operation", "status"},
	)

	p.histograms["openai_request_duration_seconds"] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "openai_request_duration_seconds",
			Help:      "Completion provider request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"service", "operation"},
	)

	// GitHub API metrics
	p.counters["github_requests_total"] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_requests_total",
			Help:      "Total number of GitHub API requests",
		},
		[]string{"service", "operation", "status"},
	)

	p.histograms["github_request_duration_seconds"] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "github_request_duration_seconds",
			Help:      "GitHub API request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"service", "operation"},
	)

	// Business metrics
	p.counters["pr_review_total"] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pr_review_total",
			Help:      "Total number of pull request review invocations",
		},
		[]string{"repository", "action", "outcome"},
	)

	p.histograms["pr_review_duration_seconds"] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pr_review_duration_seconds",
			Help:      "Pull request review duration in seconds",
			Buckets:   []float64{1.0, 5.0, 10.0, 30.0, 60.0, 120.0, 300.0},
		},
		[]string{"repository", "action"},
	)

	p.counters["files_reviewed_total"] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_reviewed_total",
			Help:      "Files sent to the reviewer, by result",
		},
		[]string{"repository", "result"}, // result: approved, commented, failed
	)

	p.counters["review_comments_total"] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_comments_total",
			Help:      "Inline review comments submitted",
		},
		[]string{"repository"},
	)

	// Circuit breaker metrics
	p.gauges["circuit_breaker_state"] = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service", "name"},
	)
}

// IncrementCounter increments a counter metric
func (p *PrometheusCollector) IncrementCounter(name string, labels map[string]string) {
	p.AddCounter(name, 1, labels)
}

// AddCounter adds value to a counter metric
func (p *PrometheusCollector) AddCounter(name string, value float64, labels map[string]string) {
	counter, exists := p.counters[name]
	if !exists {
		return
	}

	counter.With(labels).Add(value)
}

// RecordDuration records a duration in a histogram
func (p *PrometheusCollector) RecordDuration(name string, duration float64, labels map[string]string) {
	histogram, exists := p.histograms[name]
	if !exists {
		return
	}

	histogram.With(labels).Observe(duration)
}

// SetGauge sets a gauge value
func (p *PrometheusCollector) SetGauge(name string, value float64, labels map[string]string) {
	gauge, exists := p.gauges[name]
	if !exists {
		return
	}

	gauge.With(labels).Set(value)
}

// Counter exposes a registered counter vector, nil when unknown
func (p *PrometheusCollector) Counter(name string) *prometheus.CounterVec {
	return p.counters[name]
}

// Gauge exposes a registered gauge vector, nil when unknown
func (p *PrometheusCollector) Gauge(name string) *prometheus.GaugeVec {
	return p.gauges[name]
}
