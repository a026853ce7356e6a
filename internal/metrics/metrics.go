// Package metrics exposes Prometheus collectors for the oracle daemon.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "oracled"

// Collector owns a private registry so that tests can create as many as
// they need.
type Collector struct {
	registry *prometheus.Registry

	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	callWrites   prometheus.Histogram

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge

	chargedUnits *prometheus.CounterVec

	feederRuns   *prometheus.CounterVec
	feederPriced prometheus.Gauge
	feederLast   prometheus.Gauge
}

// NewCollector creates a collector with its own registry. Process and Go
// runtime collectors are registered when runtime is set.
func NewCollector(runtime bool) *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.calls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "host",
			Name:      "calls_total",
			Help:      "Total number of oracle calls by operation and outcome.",
		},
		[]string{"op", "committed"},
	)
	c.callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "host",
			Name:      "call_duration_seconds",
			Help:      "Duration of oracle calls.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~1.6s
		},
		[]string{"op"},
	)
	c.callWrites = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "host",
			Name:      "call_writes",
			Help:      "Number of storage writes buffered by a call.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	c.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of RPC requests handled.",
		},
		[]string{"method", "status"},
	)
	c.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Duration of RPC requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method"},
	)
	c.inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "rpc",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight RPC requests.",
		},
	)

	c.chargedUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "billing",
			Name:      "charged_units_total",
			Help:      "Query units charged to caller balances.",
		},
		[]string{"method"},
	)

	c.feederRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "feeder",
			Name:      "runs_total",
			Help:      "Total number of feeder runs by result.",
		},
		[]string{"result"},
	)
	c.feederPriced = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "feeder",
			Name:      "assets_priced",
			Help:      "Number of assets priced by the last successful run.",
		},
	)
	c.feederLast = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "feeder",
			Name:      "last_timestamp_seconds",
			Help:      "Oracle timestamp written by the last successful run.",
		},
	)

	c.registry.MustRegister(
		c.calls,
		c.callDuration,
		c.callWrites,
		c.requests,
		c.requestDuration,
		c.inFlight,
		c.chargedUnits,
		c.feederRuns,
		c.feederPriced,
		c.feederLast,
	)
	if runtime {
		c.registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
	}
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveCall records the outcome of a host call.
func (c *Collector) ObserveCall(op string, committed bool, writes int, elapsed time.Duration) {
	c.calls.WithLabelValues(op, strconv.FormatBool(committed)).Inc()
	c.callDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	c.callWrites.Observe(float64(writes))
}

// RequestStarted marks an RPC request in flight and returns the function
// that records its completion.
func (c *Collector) RequestStarted(method string) func(status string) {
	start := time.Now()
	c.inFlight.Inc()
	return func(status string) {
		c.inFlight.Dec()
		if method == "" {
			method = "unknown"
		}
		c.requests.WithLabelValues(method, status).Inc()
		c.requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}

// ObserveCharge records units charged for a metered query.
func (c *Collector) ObserveCharge(method string, units uint64) {
	if units == 0 {
		return
	}
	c.chargedUnits.WithLabelValues(method).Add(float64(units))
}

// ObserveFeederRun records a feeder run. priced and timestamp are only
// recorded for successful runs.
func (c *Collector) ObserveFeederRun(success bool, priced int, timestamp uint64) {
	if !success {
		c.feederRuns.WithLabelValues("failed").Inc()
		return
	}
	c.feederRuns.WithLabelValues("ok").Inc()
	c.feederPriced.Set(float64(priced))
	c.feederLast.Set(float64(timestamp))
}
