package pool

import (
	"sort"
	"sync"
	"time"
)

// Metrics tracks pool health. All fields are guarded by mu; read them
// through Snapshot.
type Metrics struct {
	mu                 sync.RWMutex
	WorkerCount        int
	TaskQueueSize      int
	TaskCount          int64
	TaskFailures       int64
	TotalTaskTime      time.Duration
	AverageTaskLatency time.Duration
	P95TaskLatency     time.Duration
	P99TaskLatency     time.Duration
	TaskSuccessRate    float64
	RateLimitHits      int64
	SchedulingFailures int64
	BreakerRejections  int64

	latencies  []time.Duration
	windowSize int
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	WorkerCount        int
	TaskQueueSize      int
	TaskCount          int64
	TaskFailures       int64
	AverageTaskLatency time.Duration
	P95TaskLatency     time.Duration
	P99TaskLatency     time.Duration
	TaskSuccessRate    float64
	RateLimitHits      int64
	SchedulingFailures int64
	BreakerRejections  int64
}

// NewMetrics creates an empty metrics set.
func NewMetrics() *Metrics {
	return &Metrics{
		latencies:  make([]time.Duration, 0, 1000),
		windowSize: 1000, // last 1000 measurements
	}
}

func (m *Metrics) recordTaskExecution(startTime time.Time, success bool) {
	duration := time.Since(startTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalTaskTime += duration
	m.TaskCount++
	if !success {
		m.TaskFailures++
	}
	m.TaskSuccessRate = float64(m.TaskCount-m.TaskFailures) / float64(m.TaskCount)

	m.updateLatencyPercentiles(duration)
}

func (m *Metrics) updateLatencyPercentiles(duration time.Duration) {
	m.AverageTaskLatency = m.TotalTaskTime / time.Duration(m.TaskCount)

	m.latencies = append(m.latencies, duration)
	if len(m.latencies) > m.windowSize {
		m.latencies = m.latencies[1:]
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	m.P95TaskLatency = sorted[percentileIndex(len(sorted), 0.95)]
	m.P99TaskLatency = sorted[percentileIndex(len(sorted), 0.99)]
}

func percentileIndex(n int, p float64) int {
	idx := int(float64(n) * p)
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func (m *Metrics) incr(field *int64) {
	m.mu.Lock()
	*field++
	m.mu.Unlock()
}

func (m *Metrics) setGauges(workers, queue int) {
	m.mu.Lock()
	m.WorkerCount = workers
	m.TaskQueueSize = queue
	m.mu.Unlock()
}

// Snapshot copies the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		WorkerCount:        m.WorkerCount,
		TaskQueueSize:      m.TaskQueueSize,
		TaskCount:          m.TaskCount,
		TaskFailures:       m.TaskFailures,
		AverageTaskLatency: m.AverageTaskLatency,
		P95TaskLatency:     m.P95TaskLatency,
		P99TaskLatency:     m.P99TaskLatency,
		TaskSuccessRate:    m.TaskSuccessRate,
		RateLimitHits:      m.RateLimitHits,
		SchedulingFailures: m.SchedulingFailures,
		BreakerRejections:  m.BreakerRejections,
	}
}

// ExportMetrics flattens the metrics into a map for printing.
func (m *Metrics) ExportMetrics() map[string]any {
	snap := m.Snapshot()

	return map[string]any{
		"worker_count":        snap.WorkerCount,
		"queue_size":          snap.TaskQueueSize,
		"task_count":          snap.TaskCount,
		"task_failures":       snap.TaskFailures,
		"success_rate":        snap.TaskSuccessRate,
		"avg_latency":         snap.AverageTaskLatency.Milliseconds(),
		"p95_latency":         snap.P95TaskLatency.Milliseconds(),
		"p99_latency":         snap.P99TaskLatency.Milliseconds(),
		"rate_limit_hits":     snap.RateLimitHits,
		"scheduling_failures": snap.SchedulingFailures,
		"breaker_rejections":  snap.BreakerRejections,
	}
}
