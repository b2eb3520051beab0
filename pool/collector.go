package pool

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metricsCollector struct {
	metrics *Metrics

	workers            *prometheus.Desc
	queueSize          *prometheus.Desc
	tasks              *prometheus.Desc
	failures           *prometheus.Desc
	successRate        *prometheus.Desc
	latencySeconds     *prometheus.Desc
	rateLimitHits      *prometheus.Desc
	schedulingFailures *prometheus.Desc
	breakerRejections  *prometheus.Desc
}

// NewCollector exposes m as Prometheus metrics under the qgrad_pool_
// prefix.
func NewCollector(m *Metrics) prometheus.Collector {
	return &metricsCollector{
		metrics: m,
		workers: prometheus.NewDesc(
			"qgrad_pool_workers",
			"Number of running workers",
			nil, nil,
		),
		queueSize: prometheus.NewDesc(
			"qgrad_pool_queue_size",
			"Tasks waiting for a worker",
			nil, nil,
		),
		tasks: prometheus.NewDesc(
			"qgrad_pool_tasks_total",
			"Tasks executed",
			nil, nil,
		),
		failures: prometheus.NewDesc(
			"qgrad_pool_task_failures_total",
			"Tasks that failed after all retries",
			nil, nil,
		),
		successRate: prometheus.NewDesc(
			"qgrad_pool_task_success_ratio",
			"Fraction of executed tasks that succeeded",
			nil, nil,
		),
		latencySeconds: prometheus.NewDesc(
			"qgrad_pool_task_latency_seconds",
			"Task latency by quantile",
			[]string{"quantile"}, nil,
		),
		rateLimitHits: prometheus.NewDesc(
			"qgrad_pool_rate_limit_hits_total",
			"Submissions delayed by the rate limiter",
			nil, nil,
		),
		schedulingFailures: prometheus.NewDesc(
			"qgrad_pool_scheduling_failures_total",
			"Tasks that could not be handed to a worker in time",
			nil, nil,
		),
		breakerRejections: prometheus.NewDesc(
			"qgrad_pool_breaker_rejections_total",
			"Tasks rejected by an open circuit breaker",
			nil, nil,
		),
	}
}

func (c *metricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.workers
	ch <- c.queueSize
	ch <- c.tasks
	ch <- c.failures
	ch <- c.successRate
	ch <- c.latencySeconds
	ch <- c.rateLimitHits
	ch <- c.schedulingFailures
	ch <- c.breakerRejections
}

func (c *metricsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.metrics.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(snap.WorkerCount))
	ch <- prometheus.MustNewConstMetric(c.queueSize, prometheus.GaugeValue, float64(snap.TaskQueueSize))
	ch <- prometheus.MustNewConstMetric(c.tasks, prometheus.CounterValue, float64(snap.TaskCount))
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(snap.TaskFailures))
	ch <- prometheus.MustNewConstMetric(c.successRate, prometheus.GaugeValue, snap.TaskSuccessRate)
	ch <- prometheus.MustNewConstMetric(c.latencySeconds, prometheus.GaugeValue, snap.AverageTaskLatency.Seconds(), "avg")
	ch <- prometheus.MustNewConstMetric(c.latencySeconds, prometheus.GaugeValue, snap.P95TaskLatency.Seconds(), "0.95")
	ch <- prometheus.MustNewConstMetric(c.latencySeconds, prometheus.GaugeValue, snap.P99TaskLatency.Seconds(), "0.99")
	ch <- prometheus.MustNewConstMetric(c.rateLimitHits, prometheus.CounterValue, float64(snap.RateLimitHits))
	ch <- prometheus.MustNewConstMetric(c.schedulingFailures, prometheus.CounterValue, float64(snap.SchedulingFailures))
	ch <- prometheus.MustNewConstMetric(c.breakerRejections, prometheus.CounterValue, float64(snap.BreakerRejections))
}
