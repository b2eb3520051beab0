package estimator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/theapemachine/errnie"
	"golang.org/x/sync/errgroup"

	"github.com/theapemachine/qgrad/pool"
)

// Backend evaluates a single PUB.
type Backend interface {
	Evaluate(ctx context.Context, pub PUB) (PubResult, error)
}

/*
Local is an Estimator that runs every PUB of a batch as its own task on a
worker pool, so a batch is evaluated concurrently while the caller still
sees a single job.
*/
type Local struct {
	pool    *pool.Pool
	backend Backend
	opts    []pool.TaskOption
}

// LocalOption configures a Local estimator.
type LocalOption func(*Local)

// WithBreaker guards the backend with a pool circuit breaker.
func WithBreaker(id string, maxFailures int, resetTimeout time.Duration) LocalOption {
	return func(l *Local) {
		l.opts = append(l.opts, pool.WithBreaker(id, maxFailures, resetTimeout))
	}
}

// WithRetry retries failed PUB evaluations.
func WithRetry(attempts int, initial time.Duration) LocalOption {
	return func(l *Local) {
		l.opts = append(l.opts, pool.WithRetry(attempts, &pool.ExponentialBackoff{Initial: initial}))
	}
}

// NewLocal creates an estimator that evaluates PUBs with backend on p.
func NewLocal(p *pool.Pool, backend Backend, opts ...LocalOption) *Local {
	l := &Local{pool: p, backend: backend}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Local) Run(ctx context.Context, pubs []PUB) (Job, error) {
	for i, pub := range pubs {
		if err := pub.Validate(); err != nil {
			return nil, fmt.Errorf("pub %d: %w", i, err)
		}
	}

	job := &localJob{
		id:      uuid.NewString(),
		pool:    l.pool,
		taskIDs: make([]string, len(pubs)),
		chans:   make([]<-chan pool.Outcome, len(pubs)),
	}

	for i, pub := range pubs {
		job.taskIDs[i], job.chans[i] = l.pool.Submit(ctx, func(taskCtx context.Context) (any, error) {
			return l.backend.Evaluate(taskCtx, pub)
		}, l.opts...)
	}

	errnie.Info("estimator job %s submitted with %d pub(s)", job.id, len(pubs))
	return job, nil
}

type localJob struct {
	id      string
	pool    *pool.Pool
	taskIDs []string
	chans   []<-chan pool.Outcome

	once    sync.Once
	results []PubResult
	err     error
}

func (j *localJob) ID() string {
	return j.id
}

// Result gathers every task outcome. The first call decides the outcome;
// later calls return the same results or error.
func (j *localJob) Result(ctx context.Context) ([]PubResult, error) {
	j.once.Do(func() {
		j.results, j.err = j.gather(ctx)
	})
	return j.results, j.err
}

func (j *localJob) gather(ctx context.Context) ([]PubResult, error) {
	results := make([]PubResult, len(j.chans))
	g, gctx := errgroup.WithContext(ctx)

	defer func() {
		for _, id := range j.taskIDs {
			j.pool.Forget(id)
		}
	}()

	for i, ch := range j.chans {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case outcome, ok := <-ch:
				if !ok {
					return fmt.Errorf("pub %d: outcome was forgotten", i)
				}
				if outcome.Err != nil {
					return fmt.Errorf("pub %d: %w", i, outcome.Err)
				}
				result, ok := outcome.Value.(PubResult)
				if !ok {
					return fmt.Errorf("pub %d: unexpected task value %T", i, outcome.Value)
				}
				results[i] = result
				return nil
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("estimator job %s: %w", j.id, err)
	}

	return results, nil
}
