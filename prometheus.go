package blockmat

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector with Prometheus metrics.
type PrometheusCollector struct {
	opLatency *prometheus.HistogramVec
	opErrors  *prometheus.CounterVec
	blocks    prometheus.Counter
	pageOps   *prometheus.CounterVec
	pageBytes *prometheus.CounterVec
}

// NewPrometheusCollector creates the collector and registers its metrics with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "blockmat",
			Name:      "operation_duration_seconds",
			Help:      "Latency of matrix operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "kind"}),
		opErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockmat",
			Name:      "operation_errors_total",
			Help:      "Failed matrix operations.",
		}, []string{"op"}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockmat",
			Name:      "blocks_written_total",
			Help:      "Pages produced by blockification.",
		}),
		pageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockmat",
			Name:      "page_operations_total",
			Help:      "Page store operations.",
		}, []string{"op"}),
		pageBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockmat",
			Name:      "page_bytes_total",
			Help:      "Bytes moved to and from the page store.",
		}, []string{"op"}),
	}

	for _, col := range []prometheus.Collector{c.opLatency, c.opErrors, c.blocks, c.pageOps, c.pageBytes} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func kindLabel(sparse bool) string {
	if sparse {
		return "sparse"
	}
	return "dense"
}

func (c *PrometheusCollector) observe(op, kind string, d time.Duration, err error) {
	c.opLatency.WithLabelValues(op, kind).Observe(d.Seconds())
	if err != nil {
		c.opErrors.WithLabelValues(op).Inc()
	}
}

// RecordLoad implements MetricsCollector.
func (c *PrometheusCollector) RecordLoad(sparse bool, blocks int, d time.Duration, err error) {
	c.observe("load", kindLabel(sparse), d, err)
	if err == nil {
		c.blocks.Add(float64(blocks))
	}
}

// RecordTranspose implements MetricsCollector.
func (c *PrometheusCollector) RecordTranspose(sparse bool, d time.Duration, err error) {
	c.observe("transpose", kindLabel(sparse), d, err)
}

// RecordExport implements MetricsCollector.
func (c *PrometheusCollector) RecordExport(d time.Duration, err error) {
	c.observe("export", "", d, err)
}

// RecordPageIO implements MetricsCollector.
func (c *PrometheusCollector) RecordPageIO(op string, bytes int) {
	c.pageOps.WithLabelValues(op).Inc()
	c.pageBytes.WithLabelValues(op).Add(float64(bytes))
}
