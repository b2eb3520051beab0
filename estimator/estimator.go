// Package estimator defines the batched expectation-value service and two
// implementations: an exact statevector backend and a Local estimator that
// fans tuples out over a worker pool.
package estimator

import (
	"context"
	"errors"
	"fmt"

	"github.com/theapemachine/qgrad/circuit"
	"github.com/theapemachine/qgrad/observable"
)

var ErrInvalidPUB = errors.New("invalid pub")

// PUB is one primitive unified bloc: a circuit, the observable to measure
// and the parameter assignments to evaluate it at.
type PUB struct {
	Circuit         *circuit.Circuit
	Observable      *observable.SparsePauliOp
	ParameterValues [][]float64

	// Precision is the requested standard error. Nil asks for the
	// estimator default.
	Precision *float64
}

// Metadata describes how a PubResult was produced.
type Metadata struct {
	TargetPrecision float64
	Backend         string
}

// PubResult holds one expectation value per parameter assignment.
type PubResult struct {
	Evs      []float64
	Stds     []float64
	Metadata Metadata
}

// Estimator evaluates a batch of PUBs as one job.
type Estimator interface {
	Run(ctx context.Context, pubs []PUB) (Job, error)
}

// Job is a submitted batch. Result blocks until every PUB is evaluated.
type Job interface {
	ID() string
	Result(ctx context.Context) ([]PubResult, error)
}

// Validate checks that the PUB is internally consistent.
func (p PUB) Validate() error {
	if p.Circuit == nil {
		return fmt.Errorf("%w: nil circuit", ErrInvalidPUB)
	}
	if p.Observable == nil {
		return fmt.Errorf("%w: nil observable", ErrInvalidPUB)
	}
	if p.Circuit.NumQubits() != p.Observable.NumQubits() {
		return fmt.Errorf(
			"%w: circuit has %d qubits, observable %d",
			ErrInvalidPUB, p.Circuit.NumQubits(), p.Observable.NumQubits(),
		)
	}
	for i, values := range p.ParameterValues {
		if len(values) != p.Circuit.NumParameters() {
			return fmt.Errorf(
				"%w: assignment %d has %d value(s), circuit has %d parameter(s)",
				ErrInvalidPUB, i, len(values), p.Circuit.NumParameters(),
			)
		}
	}
	if p.Precision != nil && *p.Precision < 0 {
		return fmt.Errorf("%w: negative precision %v", ErrInvalidPUB, *p.Precision)
	}
	return nil
}

// doneJob is a job whose result is known at submission.
type doneJob struct {
	id      string
	results []PubResult
	err     error
}

func (j *doneJob) ID() string {
	return j.id
}

func (j *doneJob) Result(ctx context.Context) ([]PubResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return j.results, j.err
}
