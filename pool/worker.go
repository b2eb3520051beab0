package pool

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Worker processes tasks
type Worker struct {
	pool  *Pool
	tasks chan Task
}

func (w *Worker) run() {
	for {
		// Announce availability to the manager.
		select {
		case <-w.pool.ctx.Done():
			return
		case w.pool.workers <- w.tasks:
		}

		select {
		case <-w.pool.ctx.Done():
			return
		case task := <-w.tasks:
			value, err := w.process(task)
			w.pool.space.Store(task.ID, value, err, task.TTL)
		}
	}
}

func (w *Worker) process(task Task) (any, error) {
	value, err := w.executeWithRetries(task)

	w.pool.metrics.recordTaskExecution(task.StartTime, err == nil)

	if breaker := w.pool.lookupBreaker(task.BreakerID); breaker != nil {
		if err != nil {
			breaker.RecordFailure()
		} else {
			breaker.RecordSuccess()
		}
	}

	return value, err
}

func (w *Worker) executeWithRetries(task Task) (any, error) {
	policy := task.RetryPolicy
	if policy == nil || policy.MaxAttempts < 1 {
		policy = &RetryPolicy{MaxAttempts: 1}
	}

	attempts := 0
	for task.Attempt = 0; task.Attempt < policy.MaxAttempts; task.Attempt++ {
		if task.Attempt > 0 && policy.Strategy != nil {
			if err := w.sleep(policy.Strategy.NextDelay(task.Attempt)); err != nil {
				task.LastError = err
				break
			}
		}

		attempts++
		value, err := w.attempt(task)
		if err == nil {
			return value, nil
		}

		task.LastError = err

		if errors.Is(err, ErrPoolClosed) {
			break
		}
		if policy.Filter != nil && !policy.Filter(err) {
			break
		}
	}

	return nil, fmt.Errorf("task %s failed after %d attempt(s): %w", task.ID, attempts, task.LastError)
}

// attempt runs the task function once under the task timeout.
func (w *Worker) attempt(task Task) (any, error) {
	timeout := w.pool.config.TaskTimeout
	ctx, cancel := context.WithTimeout(w.pool.ctx, timeout)
	defer cancel()

	type result struct {
		value any
		err   error
	}

	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("task %s panicked: %v", task.ID, r)}
			}
		}()
		value, err := task.Fn(ctx)
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && ctx.Err() != nil {
			return nil, w.interrupted(task, timeout)
		}
		return r.value, r.err
	case <-ctx.Done():
		return nil, w.interrupted(task, timeout)
	}
}

// interrupted reports why an attempt context ended: the task timeout, or
// the pool shutting down.
func (w *Worker) interrupted(task Task, timeout time.Duration) error {
	if w.pool.ctx.Err() != nil {
		return ErrPoolClosed
	}
	return fmt.Errorf("%w: %s after %v", ErrTaskTimeout, task.ID, timeout)
}

func (w *Worker) sleep(delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-w.pool.ctx.Done():
		return ErrPoolClosed
	case <-timer.C:
		return nil
	}
}
