// Package metrics exposes Prometheus metrics of the ledger service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/streamimport"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

const namespace = "eazy_recycling"

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DeclarationSubmissions *prometheus.CounterVec
	GatewayLatency         *prometheus.HistogramVec

	ImportRows *prometheus.CounterVec

	OutboxPublished prometheus.Counter
	OutboxFailed    prometheus.Counter
}

var (
	_ declaration.Observer  = (*Metrics)(nil)
	_ streamimport.Observer = (*Metrics)(nil)
)

// New creates the metrics and registers the Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		DeclarationSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lma_submissions_total",
			Help:      "Declarations sent to the LMA gateway by outcome",
		}, []string{"outcome"}),
		GatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lma_gateway_duration_seconds",
			Help:      "LMA gateway call duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),
		ImportRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Waste stream import rows by outcome",
		}, []string{"outcome"}),
		OutboxPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox messages delivered to the broker",
		}),
		OutboxFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_dead_lettered_total",
			Help:      "Outbox messages moved to the dead letter table",
		}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DeclarationSubmissions,
		m.GatewayLatency,
		m.ImportRows,
		m.OutboxPublished,
		m.OutboxFailed,
	)
	return m
}

// Registry returns the registry for custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSubmission implements declaration.Observer.
func (m *Metrics) ObserveSubmission(outcome string, elapsed time.Duration) {
	m.DeclarationSubmissions.WithLabelValues(outcome).Inc()
	m.GatewayLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveImport implements streamimport.Observer.
func (m *Metrics) ObserveImport(successful, skipped, failed int) {
	m.ImportRows.WithLabelValues("successful").Add(float64(successful))
	m.ImportRows.WithLabelValues("skipped").Add(float64(skipped))
	m.ImportRows.WithLabelValues("failed").Add(float64(failed))
}

// RegisterPool exports connection pool statistics.
func (m *Metrics) RegisterPool(pool *postgres.Pool) {
	m.registry.MustRegister(&poolCollector{pool: pool})
}

type poolCollector struct {
	pool *postgres.Pool
}

var (
	poolTotalDesc    = prometheus.NewDesc(namespace+"_db_pool_connections", "Open connections", nil, nil)
	poolIdleDesc     = prometheus.NewDesc(namespace+"_db_pool_idle_connections", "Idle connections", nil, nil)
	poolAcquiredDesc = prometheus.NewDesc(namespace+"_db_pool_acquired_connections", "Connections in use", nil, nil)
	poolMaxDesc      = prometheus.NewDesc(namespace+"_db_pool_max_connections", "Pool size limit", nil, nil)
)

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolTotalDesc
	ch <- poolIdleDesc
	ch <- poolAcquiredDesc
	ch <- poolMaxDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(poolTotalDesc, prometheus.GaugeValue, float64(s.TotalConns))
	ch <- prometheus.MustNewConstMetric(poolIdleDesc, prometheus.GaugeValue, float64(s.IdleConns))
	ch <- prometheus.MustNewConstMetric(poolAcquiredDesc, prometheus.GaugeValue, float64(s.AcquiredConns))
	ch <- prometheus.MustNewConstMetric(poolMaxDesc, prometheus.GaugeValue, float64(s.MaxConns))
}
