package metrics

import (
	"net/http"
	"time"

	"github.com/nao1215/wikiscope/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "wikiscope"

// Collector records request and stage metrics.
// It is safe for concurrent use.
type Collector struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	stageDuration   *prometheus.HistogramVec
	lookups         *prometheus.CounterVec
}

// Option configures a Collector.
type Option func(*collectorConfig)

type collectorConfig struct {
	processMetrics bool
}

// WithProcessMetrics also registers the Go runtime and process collectors.
func WithProcessMetrics() Option {
	return func(c *collectorConfig) {
		c.processMetrics = true
	}
}

// NewCollector creates a Collector on its own registry.
func NewCollector(opts ...Option) *Collector {
	cfg := &collectorConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "upstream_requests_total",
			Help:      "Number of requests sent to the Wikimedia APIs.",
		}, []string{"endpoint", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of requests sent to the Wikimedia APIs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of lookup pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "outcome"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "lookups_total",
			Help:      "Number of finished lookups by status.",
		}, []string{"status"}),
	}

	c.registry.MustRegister(c.requests, c.requestDuration, c.stageDuration, c.lookups)
	if cfg.processMetrics {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return c
}

// ObserveRequest records one upstream API request.
func (c *Collector) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	c.requests.WithLabelValues(endpoint, outcome).Inc()
	c.requestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveStage records one pipeline stage.
func (c *Collector) ObserveStage(stage model.Stage, outcome string, elapsed time.Duration) {
	c.stageDuration.WithLabelValues(stage.String(), outcome).Observe(elapsed.Seconds())
}

// ObserveLookup records a finished lookup.
func (c *Collector) ObserveLookup(status model.Status) {
	c.lookups.WithLabelValues(status.String()).Inc()
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler serving the metrics in the Prometheus
// exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
