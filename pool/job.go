package pool

import (
	"context"
	"time"
)

// TaskFunc is the unit of work executed by a worker. The context carries
// the per-attempt task timeout.
type TaskFunc func(ctx context.Context) (any, error)

// Task represents work to be done
type Task struct {
	ID            string
	Fn            TaskFunc
	RetryPolicy   *RetryPolicy
	BreakerID     string
	BreakerConfig *BreakerConfig
	TTL           time.Duration
	Attempt       int
	LastError     error
	StartTime     time.Time
}

// TaskOption configures a task at submission.
type TaskOption func(*Task)

// BreakerConfig struct
type BreakerConfig struct {
	MaxFailures  int
	ResetTimeout time.Duration
	HalfOpenMax  int
}

// WithID overrides the generated task ID.
func WithID(id string) TaskOption {
	return func(t *Task) {
		t.ID = id
	}
}

// WithTTL configures how long the task outcome stays in the result space.
func WithTTL(ttl time.Duration) TaskOption {
	return func(t *Task) {
		t.TTL = ttl
	}
}

// WithRetry configures retry behavior for a task
func WithRetry(attempts int, strategy RetryStrategy) TaskOption {
	return func(t *Task) {
		t.RetryPolicy = &RetryPolicy{
			MaxAttempts: attempts,
			Strategy:    strategy,
		}
	}
}

// WithBreaker guards the task with the named circuit breaker, creating it
// on first use.
func WithBreaker(id string, maxFailures int, resetTimeout time.Duration) TaskOption {
	return func(t *Task) {
		t.BreakerID = id
		t.BreakerConfig = &BreakerConfig{
			MaxFailures:  maxFailures,
			ResetTimeout: resetTimeout,
			HalfOpenMax:  1,
		}
	}
}
