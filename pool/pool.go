package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/theapemachine/errnie"
)

var (
	ErrPoolClosed        = errors.New("pool closed")
	ErrTaskTimeout       = errors.New("task timed out")
	ErrSchedulingTimeout = errors.New("task scheduling timeout")
	ErrBreakerOpen       = errors.New("circuit breaker open")
)

/*
Pool is a fixed-size worker pool whose task outcomes are delivered through
a result Space. Submissions can be paced by a token bucket, guarded by
named circuit breakers and retried with backoff.
*/
type Pool struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	workers    chan chan Task
	tasks      chan Task
	space      *Space
	metrics    *Metrics
	limiter    *RateLimiter
	breakersMu sync.Mutex
	breakers   map[string]*Breaker
	workerMu   sync.Mutex
	workerList []*Worker
	config     *Config
	closeOnce  sync.Once
}

// New starts a pool with config.Workers workers. A nil config uses
// NewConfig.
func New(ctx context.Context, config *Config) *Pool {
	config = config.normalize()
	ctx, cancel := context.WithCancel(ctx)

	p := &Pool{
		ctx:        ctx,
		cancel:     cancel,
		workers:    make(chan chan Task, config.Workers),
		tasks:      make(chan Task, config.Workers*10),
		space:      NewSpace(config.ResultTTL),
		metrics:    NewMetrics(),
		breakers:   make(map[string]*Breaker),
		workerList: make([]*Worker, 0, config.Workers),
		config:     config,
	}

	if config.RateLimit > 0 {
		p.limiter = NewRateLimiter(config.RateLimit, config.RateRefill)
	}

	for i := 0; i < config.Workers; i++ {
		p.startWorker()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.manage()
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.collectMetrics()
	}()

	errnie.Info("pool started with %d workers", config.Workers)
	return p
}

func (p *Pool) manage() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			select {
			case <-p.ctx.Done():
				p.space.Store(task.ID, nil, ErrPoolClosed, task.TTL)
				return
			case workerTasks := <-p.workers:
				// Worker channels are buffered, so this never blocks.
				workerTasks <- task
			}
		}
	}
}

func (p *Pool) collectMetrics() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.updateGauges()
		}
	}
}

func (p *Pool) updateGauges() {
	p.workerMu.Lock()
	workers := len(p.workerList)
	p.workerMu.Unlock()
	p.metrics.setGauges(workers, len(p.tasks))
}

/*
Submit schedules fn and returns the task ID together with a channel that
receives exactly one Outcome. Submission failures (closed pool, open
breaker, rate limit wait cancelled, scheduling timeout) are delivered
through the same channel.
*/
func (p *Pool) Submit(ctx context.Context, fn TaskFunc, opts ...TaskOption) (string, <-chan Outcome) {
	task := Task{
		ID: uuid.NewString(),
		Fn: fn,
		RetryPolicy: &RetryPolicy{
			MaxAttempts: p.config.RetryAttempts,
			Strategy:    &ExponentialBackoff{Initial: p.config.RetryInitial},
		},
		TTL:       p.config.ResultTTL,
		StartTime: time.Now(),
	}

	for _, opt := range opts {
		opt(&task)
	}

	ch := p.space.Await(task.ID)

	if err := p.admit(ctx, task); err != nil {
		p.space.Store(task.ID, nil, err, task.TTL)
		return task.ID, ch
	}

	timer := time.NewTimer(p.config.SchedulingTimeout)
	defer timer.Stop()

	select {
	case p.tasks <- task:
		// Close may have drained the queue before this send landed.
		if p.ctx.Err() != nil {
			p.drain(p.tasks)
		}
	case <-p.ctx.Done():
		p.space.Store(task.ID, nil, ErrPoolClosed, task.TTL)
	case <-ctx.Done():
		p.space.Store(task.ID, nil, fmt.Errorf("scheduling task %s: %w", task.ID, ctx.Err()), task.TTL)
	case <-timer.C:
		p.metrics.incr(&p.metrics.SchedulingFailures)
		p.space.Store(task.ID, nil, fmt.Errorf("%w: %s", ErrSchedulingTimeout, task.ID), task.TTL)
	}

	return task.ID, ch
}

// admit applies the pool-level gates that run before a task is queued.
func (p *Pool) admit(ctx context.Context, task Task) error {
	if p.ctx.Err() != nil {
		return ErrPoolClosed
	}

	if breaker := p.getBreaker(task); breaker != nil && !breaker.Allow() {
		p.metrics.incr(&p.metrics.BreakerRejections)
		return fmt.Errorf("%w: %s", ErrBreakerOpen, task.BreakerID)
	}

	if p.limiter != nil && p.limiter.Limit() {
		p.metrics.incr(&p.metrics.RateLimitHits)
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait for task %s: %w", task.ID, err)
		}
	}

	return nil
}

// Forget releases a consumed outcome from the result space.
func (p *Pool) Forget(id string) {
	p.space.Forget(id)
}

// Outcomes returns the number of outcomes held in the result space.
func (p *Pool) Outcomes() int {
	return p.space.Len()
}

// Metrics returns the live metrics of the pool.
func (p *Pool) Metrics() *Metrics {
	return p.metrics
}

// Breaker returns the named breaker, or nil when no task has used it yet.
func (p *Pool) Breaker(id string) *Breaker {
	return p.lookupBreaker(id)
}

func (p *Pool) startWorker() {
	worker := &Worker{
		pool:  p,
		tasks: make(chan Task, 1),
	}

	p.workerMu.Lock()
	p.workerList = append(p.workerList, worker)
	count := len(p.workerList)
	p.workerMu.Unlock()

	p.metrics.setGauges(count, len(p.tasks))

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		worker.run()
	}()
}

func (p *Pool) getBreaker(task Task) *Breaker {
	if task.BreakerID == "" || task.BreakerConfig == nil {
		return p.lookupBreaker(task.BreakerID)
	}

	p.breakersMu.Lock()
	defer p.breakersMu.Unlock()

	breaker, exists := p.breakers[task.BreakerID]
	if !exists {
		breaker = NewBreaker(
			task.BreakerConfig.MaxFailures,
			task.BreakerConfig.ResetTimeout,
			task.BreakerConfig.HalfOpenMax,
		)
		p.breakers[task.BreakerID] = breaker
	}

	return breaker
}

func (p *Pool) lookupBreaker(id string) *Breaker {
	if id == "" {
		return nil
	}

	p.breakersMu.Lock()
	defer p.breakersMu.Unlock()
	return p.breakers[id]
}

// Close stops the workers. Tasks that were queued but never started
// resolve with ErrPoolClosed.
func (p *Pool) Close() {
	if p == nil {
		return
	}

	p.closeOnce.Do(func() {
		p.cancel()
		p.wg.Wait()

		p.drain(p.tasks)

		p.workerMu.Lock()
		for _, worker := range p.workerList {
			p.drain(worker.tasks)
		}
		p.workerList = nil
		p.workerMu.Unlock()

		p.space.Close()
		errnie.Info("pool closed")
	})
}

func (p *Pool) drain(tasks chan Task) {
	for {
		select {
		case task := <-tasks:
			p.space.Store(task.ID, nil, ErrPoolClosed, task.TTL)
		default:
			return
		}
	}
}
