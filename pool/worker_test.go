package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestPool(ctx context.Context) *Pool {
	return &Pool{
		ctx:      ctx,
		workers:  make(chan chan Task, 1),
		space:    NewSpace(time.Minute),
		metrics:  NewMetrics(),
		breakers: make(map[string]*Breaker),
		config:   NewConfig(),
	}
}

func TestWorker(t *testing.T) {
	Convey("Given a worker", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		pool := newTestPool(ctx)

		worker := &Worker{
			pool:  pool,
			tasks: make(chan Task, 1),
		}

		Reset(func() {
			cancel()
			pool.space.Close()
		})

		Convey("It should process a task successfully", func() {
			task := Task{
				ID:        "task_success",
				Fn:        func(context.Context) (any, error) { return "result", nil },
				StartTime: time.Now(),
				TTL:       10 * time.Second,
			}

			worker.tasks <- task
			go worker.run()

			select {
			case <-time.After(testTimeout):
				t.Fatal("timed out waiting for task outcome")
			case outcome := <-pool.space.Await(task.ID):
				So(outcome.Err, ShouldBeNil)
				So(outcome.Value, ShouldEqual, "result")
			}
		})

		Convey("It should report a panicking task as an error", func() {
			task := Task{
				ID:        "task_panic",
				Fn:        func(context.Context) (any, error) { panic("kaboom") },
				StartTime: time.Now(),
			}

			worker.tasks <- task
			go worker.run()

			select {
			case <-time.After(testTimeout):
				t.Fatal("timed out waiting for task outcome")
			case outcome := <-pool.space.Await(task.ID):
				So(outcome.Err, ShouldNotBeNil)
				So(outcome.Err.Error(), ShouldContainSubstring, "panicked: kaboom")
			}
		})

		Convey("It should record failures on the task's breaker", func() {
			breaker := NewBreaker(1, time.Hour, 1)
			pool.breakers["backend"] = breaker

			task := Task{
				ID:        "task_fail",
				Fn:        func(context.Context) (any, error) { return nil, errors.New("down") },
				BreakerID: "backend",
				StartTime: time.Now(),
			}

			_, err := worker.process(task)
			So(err, ShouldNotBeNil)
			So(breaker.State(), ShouldEqual, BreakerOpen)
		})

		Convey("It should stop retrying once the pool is closing", func() {
			cancel()

			task := Task{
				ID: "task_closing",
				Fn: func(context.Context) (any, error) { return nil, errors.New("transient") },
				RetryPolicy: &RetryPolicy{
					MaxAttempts: 3,
					Strategy:    &ExponentialBackoff{Initial: time.Hour},
				},
				StartTime: time.Now(),
			}

			_, err := worker.executeWithRetries(task)
			So(errors.Is(err, ErrPoolClosed), ShouldBeTrue)
		})
	})
}
