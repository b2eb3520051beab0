package pool

import (
	"sync"
	"time"
)

// Outcome is the result of a task as held in the Space.
type Outcome struct {
	Value     any
	Err       error
	CreatedAt time.Time
	TTL       time.Duration
}

// Space stores task outcomes and hands them to whoever awaits them.
type Space struct {
	mu      sync.Mutex
	values  map[string]Outcome
	waiting map[string][]chan Outcome
	dropped map[string]struct{}
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewSpace creates a Space that evicts expired outcomes every interval.
func NewSpace(interval time.Duration) *Space {
	if interval <= 0 {
		interval = time.Minute
	}

	s := &Space{
		values:  make(map[string]Outcome),
		waiting: make(map[string][]chan Outcome),
		dropped: make(map[string]struct{}),
		done:    make(chan struct{}),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.cleanup(interval)
	}()

	return s
}

// Store records an outcome and notifies every waiting channel.
func (s *Space) Store(id string, value any, err error, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dropped[id]; ok {
		delete(s.dropped, id)
		return
	}

	outcome := Outcome{
		Value:     value,
		Err:       err,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
	s.values[id] = outcome

	for _, ch := range s.waiting[id] {
		// Every waiting channel has room for exactly one outcome.
		ch <- outcome
		close(ch)
	}
	delete(s.waiting, id)
}

// Await returns a channel that receives the outcome once it is stored.
func (s *Space) Await(id string) <-chan Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Outcome, 1)

	if outcome, ok := s.values[id]; ok {
		ch <- outcome
		close(ch)
		return ch
	}

	s.waiting[id] = append(s.waiting[id], ch)
	return ch
}

/*
Forget drops a stored outcome before its TTL runs out. When the outcome is
still awaited, its waiters are closed without a value and the outcome is
discarded when it arrives.
*/
func (s *Space) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, id)

	if waiting, ok := s.waiting[id]; ok {
		for _, ch := range waiting {
			close(ch)
		}
		delete(s.waiting, id)
		s.dropped[id] = struct{}{}
	}
}

// Len returns the number of stored outcomes.
func (s *Space) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

func (s *Space) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *Space) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, outcome := range s.values {
		if outcome.TTL > 0 && now.Sub(outcome.CreatedAt) > outcome.TTL {
			delete(s.values, id)
		}
	}
}

// Close stops the cleanup loop. It is safe to call more than once.
func (s *Space) Close() {
	s.once.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}
