package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tunnel-publisher/internal/domain"
)

// Module provides the metrics collector
var Module = fx.Options(
	fx.Provide(NewCollector),
	fx.Provide(func(c *Collector) domain.MetricsCollector { return c }),
)

// Collector gathers run counters. There is no HTTP listener in a one-shot
// tool, so the registry is private and dumped as a summary at the end of
// the run instead of being scraped.
type Collector struct {
	registry        *prometheus.Registry
	logger          *zap.Logger
	pollTicks       prometheus.Counter
	logReadFailures prometheus.Counter
	apiRequests     *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
}

func NewCollector(logger *zap.Logger) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		logger:   logger,
		pollTicks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tunnel_publisher_poll_ticks_total",
				Help: "Total number of log poll ticks performed",
			},
		),
		logReadFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tunnel_publisher_log_read_failures_total",
				Help: "Total number of transient log read failures",
			},
		),
		apiRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunnel_publisher_api_requests_total",
				Help: "Total number of contents API requests",
			},
			[]string{"method", "status"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tunnel_publisher_stage_duration_seconds",
				Help:    "Duration of pipeline stages",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

func (c *Collector) RecordPollTick() {
	c.pollTicks.Inc()
}

func (c *Collector) RecordLogReadFailure() {
	c.logReadFailures.Inc()
}

func (c *Collector) RecordAPIRequest(method string, status int) {
	c.apiRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (c *Collector) RecordStageDuration(stage string, d time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// LogSummary dumps the gathered counters through the logger. Called once at
// the end of the run.
func (c *Collector) LogSummary() {
	families, err := c.registry.Gather()
	if err != nil {
		c.logger.Warn("failed to gather metrics", zap.Error(err))
		return
	}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			fields := []zap.Field{zap.String("metric", family.GetName())}
			for _, label := range metric.GetLabel() {
				fields = append(fields, zap.String(label.GetName(), label.GetValue()))
			}
			switch {
			case metric.GetCounter() != nil:
				fields = append(fields, zap.Float64("value", metric.GetCounter().GetValue()))
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				fields = append(fields,
					zap.Uint64("count", h.GetSampleCount()),
					zap.String("sum", fmt.Sprintf("%.3fs", h.GetSampleSum())))
			default:
				continue
			}
			c.logger.Debug("run metric", fields...)
		}
	}
}
