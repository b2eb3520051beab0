package estimator

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StatevectorConfig configures the statevector backend.
type StatevectorConfig struct {
	// DefaultPrecision is used for PUBs that request none. Zero gives
	// exact expectation values.
	DefaultPrecision float64 `mapstructure:"default_precision"`

	// Seed makes the sampling noise reproducible. Zero seeds from the
	// clock.
	Seed uint64 `mapstructure:"seed"`
}

/*
Statevector computes exact expectation values by simulating the circuit on
a dense statevector. When a PUB asks for a positive precision, each value
is perturbed with Gaussian noise of that standard deviation, the way a
shot-based estimator would report it.
*/
type Statevector struct {
	defaultPrecision float64
	mu               sync.Mutex
	rng              *rand.Rand
}

// NewStatevector creates a statevector estimator.
func NewStatevector(config StatevectorConfig) *Statevector {
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Statevector{
		defaultPrecision: config.DefaultPrecision,
		rng:              rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// DefaultPrecision is the precision reported for PUBs that request none.
func (s *Statevector) DefaultPrecision() float64 {
	return s.defaultPrecision
}

// Evaluate computes one PubResult.
func (s *Statevector) Evaluate(ctx context.Context, pub PUB) (PubResult, error) {
	if err := pub.Validate(); err != nil {
		return PubResult{}, err
	}

	precision := s.defaultPrecision
	if pub.Precision != nil {
		precision = *pub.Precision
	}

	result := PubResult{
		Evs:  make([]float64, len(pub.ParameterValues)),
		Stds: make([]float64, len(pub.ParameterValues)),
		Metadata: Metadata{
			TargetPrecision: precision,
			Backend:         "statevector",
		},
	}

	for i, values := range pub.ParameterValues {
		if err := ctx.Err(); err != nil {
			return PubResult{}, err
		}

		angles, err := pub.Circuit.Bind(values)
		if err != nil {
			return PubResult{}, err
		}

		state, err := simulate(pub.Circuit, angles)
		if err != nil {
			return PubResult{}, err
		}

		result.Evs[i] = expectation(state, pub.Observable) + s.noise(precision)
		result.Stds[i] = precision
	}

	return result, nil
}

func (s *Statevector) noise(precision float64) float64 {
	if precision <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.NormFloat64() * precision
}

// Run evaluates the PUBs in the calling goroutine and returns a finished
// job.
func (s *Statevector) Run(ctx context.Context, pubs []PUB) (Job, error) {
	job := &doneJob{id: uuid.NewString(), results: make([]PubResult, len(pubs))}

	for i, pub := range pubs {
		result, err := s.Evaluate(ctx, pub)
		if err != nil {
			job.results = nil
			job.err = err
			break
		}
		job.results[i] = result
	}

	return job, nil
}
