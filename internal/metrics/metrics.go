package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the bot's Prometheus instruments. A nil *Collector is valid
// and records nothing.
type Collector struct {
	CommandsTotal    *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	UpstreamDuration *prometheus.HistogramVec

	AuditDroppedTotal     prometheus.Counter
	AuditWriteErrorsTotal prometheus.Counter
}

// NewCollector registers the instruments with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of bot commands by command and result kind",
			},
			[]string{"command", "result"},
		),

		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "End-to-end command handling time in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"command"},
		),

		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Duration of requests to external data sources in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"upstream", "result"},
		),

		AuditDroppedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_dropped_total",
				Help:      "Audit records dropped because the queue was full",
			},
		),

		AuditWriteErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_write_errors_total",
				Help:      "Audit records that failed to be written to a sink",
			},
		),
	}
}

// RecordCommand records a finished command with its result kind ("success" or a failure kind)
func (c *Collector) RecordCommand(command, result string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.CommandsTotal.WithLabelValues(command, result).Inc()
	c.CommandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// RecordUpstream records one request to an external data source
func (c *Collector) RecordUpstream(upstream, result string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.UpstreamDuration.WithLabelValues(upstream, result).Observe(elapsed.Seconds())
}

// RecordAuditDropped counts a record lost to a full queue
func (c *Collector) RecordAuditDropped() {
	if c == nil {
		return
	}
	c.AuditDroppedTotal.Inc()
}

// RecordAuditWriteError counts a failed sink write
func (c *Collector) RecordAuditWriteError() {
	if c == nil {
		return
	}
	c.AuditWriteErrorsTotal.Inc()
}
