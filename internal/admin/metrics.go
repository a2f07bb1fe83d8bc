package admin

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/raniellyferreira/respkit"
)

// Metrics holds the Prometheus metrics of a node. It implements
// respkit.MetricsCollector.
type Metrics struct {
	registry *prometheus.Registry

	// Command metrics
	commandsTotal   *prometheus.CounterVec
	commandErrors   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec

	// Connection metrics
	connectionsTotal prometheus.Counter
	connectedClients prometheus.Gauge
}

// NewMetrics creates the metrics on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		commandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "respkit_commands_total",
				Help: "Total number of processed commands",
			},
			[]string{"command"},
		),

		commandErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "respkit_command_errors_total",
				Help: "Total number of commands answered with an error",
			},
			[]string{"command"},
		),

		commandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "respkit_command_duration_seconds",
				Help:    "Command execution time in seconds",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"command"},
		),

		connectionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "respkit_connections_total",
				Help: "Total number of accepted client connections",
			},
		),

		connectedClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "respkit_connected_clients",
				Help: "Number of open client connections",
			},
		),
	}
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordCommandProcessed records a processed command
func (m *Metrics) RecordCommandProcessed(cmd string, duration time.Duration) {
	m.commandsTotal.WithLabelValues(cmd).Inc()
	m.commandDuration.WithLabelValues(cmd).Observe(duration.Seconds())
}

// RecordError records a command answered with an error
func (m *Metrics) RecordError(cmd string) {
	m.commandErrors.WithLabelValues(cmd).Inc()
}

// RecordConnection records a client connecting or disconnecting
func (m *Metrics) RecordConnection(open bool) {
	if open {
		m.connectionsTotal.Inc()
		m.connectedClients.Inc()
		return
	}
	m.connectedClients.Dec()
}

// WatchNode registers gauges that read the keyspace of node on every
// scrape
func (m *Metrics) WatchNode(node *respkit.Node) {
	factory := promauto.With(m.registry)
	stor := node.Storage()

	storageValue := func(key string) func() float64 {
		return func() float64 {
			v, _ := stor.Info()[key].(int64)
			return float64(v)
		}
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "respkit_keys",
		Help: "Number of keys in the keyspace",
	}, func() float64 { return float64(stor.KeyCount()) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "respkit_keys_with_expiry",
		Help: "Number of keys with an expiry set",
	}, storageValue("expires"))

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "respkit_memory_usage_bytes",
		Help: "Estimated memory used by keys and values",
	}, storageValue("memory_usage"))

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "respkit_expired_keys_total",
		Help: "Total number of keys removed by expiry",
	}, storageValue("expired_keys"))

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "respkit_keyspace_writes_total",
		Help: "Total number of key writes",
	}, func() float64 { return float64(node.Stats.GetKeysSet()) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "respkit_keyspace_deletes_total",
		Help: "Total number of key deletions",
	}, func() float64 { return float64(node.Stats.GetKeysDeleted()) })
}
