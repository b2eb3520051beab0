package pool

import (
	"sync"
	"time"

	"github.com/theapemachine/errnie"
)

/*
BreakerState represents the operational mode of a Breaker as it moves
between states based on the health of the backend it guards.
*/
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // Normal operation
	BreakerOpen                         // Failure threshold reached, rejecting tasks
	BreakerHalfOpen                     // Probationary, allowing a limited number of tasks
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

/*
Breaker implements the circuit breaker pattern for tasks submitted to the
pool. When a backend keeps failing, the breaker opens and further tasks
guarded by it are rejected without being executed until resetTimeout has
passed. After that it lets halfOpenMax probe tasks through; if they
succeed the breaker closes again.
*/
type Breaker struct {
	mu               sync.Mutex
	maxFailures      int
	resetTimeout     time.Duration
	halfOpenMax      int
	failureCount     int
	state            BreakerState
	openTime         time.Time
	halfOpenAttempts int
}

/*
NewBreaker creates a closed breaker.

Parameters:
  - maxFailures: Number of failures allowed before opening
  - resetTimeout: Time to wait before probing an open breaker
  - halfOpenMax: Number of successful probes needed to close again
*/
func NewBreaker(maxFailures int, resetTimeout time.Duration, halfOpenMax int) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	if halfOpenMax < 1 {
		halfOpenMax = 1
	}
	return &Breaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		halfOpenMax:  halfOpenMax,
		state:        BreakerClosed,
	}
}

// State returns the current state without triggering a transition.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RecordFailure records a failure and opens the breaker when the
// threshold is reached. Any failure while half-open reopens it.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++

	switch b.state {
	case BreakerHalfOpen:
		b.state = BreakerOpen
		b.openTime = time.Now()
		b.halfOpenAttempts = 0
		errnie.Info("breaker reopened from half-open after %d failures", b.failureCount)
	case BreakerClosed:
		if b.failureCount >= b.maxFailures {
			b.state = BreakerOpen
			b.openTime = time.Now()
			errnie.Info("breaker opened after %d failures", b.failureCount)
		}
	}
}

// RecordSuccess records a successful task.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.halfOpenAttempts++
		if b.halfOpenAttempts >= b.halfOpenMax {
			b.state = BreakerClosed
			b.failureCount = 0
			b.halfOpenAttempts = 0
		}
	case BreakerClosed:
		b.failureCount = 0
	}
}

/*
Allow reports whether a task may run. An open breaker whose resetTimeout
has elapsed moves to half-open and allows the call.
*/
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(b.openTime) > b.resetTimeout {
			b.state = BreakerHalfOpen
			b.halfOpenAttempts = 0
			return true
		}
		return false
	case BreakerHalfOpen:
		return b.halfOpenAttempts < b.halfOpenMax
	default:
		return false
	}
}
