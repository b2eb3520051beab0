// Package qgrad computes gradients of expectation values of parameterized
// circuits with the parameter-shift rule.
package qgrad

import (
	"context"
	"fmt"

	"github.com/theapemachine/errnie"

	"github.com/theapemachine/qgrad/circuit"
	"github.com/theapemachine/qgrad/estimator"
	"github.com/theapemachine/qgrad/observable"
)

/*
ParamShift computes the gradients of expectation values by the parameter
shift rule: for every selected parameter the circuit is evaluated with
that parameter shifted by +π/2 and by -π/2, and the derivative is half the
difference. All shifted evaluations of all circuits go to the estimator as
a single job.

Reference: Schuld, Bergholm, Gogolin, Izaac and Killoran, "Evaluating
analytic gradients on quantum hardware", Phys. Rev. A 99, 032331 (2019).
*/
type ParamShift struct {
	estimator  estimator.Estimator
	precision  Precision
	transpiler circuit.Transpiler
}

// Option configures a ParamShift gradient.
type Option func(*ParamShift)

// WithPrecision sets the precision used when Run is given none.
func WithPrecision(p float64) Option {
	return func(g *ParamShift) {
		g.precision = Scalar(p)
	}
}

// WithTranspiler runs gradient circuits through t before execution and
// adapts each observable to the resulting layout.
func WithTranspiler(t circuit.Transpiler) Option {
	return func(g *ParamShift) {
		g.transpiler = t
	}
}

// NewParamShift creates a parameter-shift gradient over est.
func NewParamShift(est estimator.Estimator, opts ...Option) *ParamShift {
	g := &ParamShift{estimator: est}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

/*
Run computes one gradient per circuit.

parameters selects what to differentiate: a nil slice means every
parameter of every circuit, a nil entry every parameter of that circuit.
Gradients are ordered by the circuit's parameter order, and
Result.Metadata records that order. An unset precision falls back to the
gradient's own precision, then to the estimator default.
*/
func (g *ParamShift) Run(
	ctx context.Context,
	circuits []*circuit.Circuit,
	observables []*observable.SparsePauliOp,
	parameterValues [][]float64,
	parameters [][]string,
	precision Precision,
) (*Result, error) {
	if precision.IsUnset() {
		precision = g.precision
	}

	if err := validate(circuits, observables, parameterValues, parameters, precision); err != nil {
		return nil, err
	}

	parameters = resolveParameters(circuits, parameters)

	gradientCircuits := make([]*gradientCircuit, len(circuits))
	executed := make([]*circuit.Circuit, len(circuits))

	for i, c := range circuits {
		gc, err := newGradientCircuit(c)
		if err != nil {
			return nil, err
		}
		gradientCircuits[i] = gc
		executed[i] = gc.circuit
	}

	executedObservables := observables

	if g.transpiler != nil {
		var err error
		if executed, executedObservables, err = g.transpile(executed, observables); err != nil {
			return nil, err
		}
	}

	return g.runUnique(ctx, gradientCircuits, executed, executedObservables, parameterValues, parameters, precision)
}

func (g *ParamShift) transpile(
	circuits []*circuit.Circuit,
	observables []*observable.SparsePauliOp,
) ([]*circuit.Circuit, []*observable.SparsePauliOp, error) {
	transpiled, err := g.transpiler.Run(circuits)
	if err != nil {
		return nil, nil, &AlgorithmError{Message: "transpiling gradient circuits failed", Err: err}
	}

	if len(transpiled) != len(circuits) {
		return nil, nil, &AlgorithmError{
			Message: fmt.Sprintf("transpiler returned %d circuit(s) for %d", len(transpiled), len(circuits)),
		}
	}

	adapted := make([]*observable.SparsePauliOp, len(observables))
	for i, obs := range observables {
		if adapted[i], err = obs.ApplyLayout(transpiled[i].Layout, transpiled[i].NumQubits()); err != nil {
			return nil, nil, &AlgorithmError{Message: fmt.Sprintf("applying layout to observable %d failed", i), Err: err}
		}
	}

	return transpiled, adapted, nil
}

func (g *ParamShift) runUnique(
	ctx context.Context,
	gradientCircuits []*gradientCircuit,
	executed []*circuit.Circuit,
	observables []*observable.SparsePauliOp,
	parameterValues [][]float64,
	parameters [][]string,
	precision Precision,
) (*Result, error) {
	n := len(gradientCircuits)
	pubs := make([]estimator.PUB, n)
	selected := make([][]int, n)
	metadata := make([]Metadata, n)

	for i, gc := range gradientCircuits {
		metadata[i] = Metadata{Parameters: parameters[i]}
		selected[i] = gc.selected(parameters[i])

		rows, err := gc.shiftedValues(executed[i], parameterValues[i], selected[i])
		if err != nil {
			return nil, &AlgorithmError{Message: fmt.Sprintf("preparing circuit %d failed", i), Err: err}
		}

		// Combine inputs into a single job to reduce overhead.
		pubs[i] = estimator.PUB{
			Circuit:         executed[i],
			Observable:      observables[i],
			ParameterValues: rows,
			Precision:       precision.forCircuit(i),
		}
	}

	errnie.Info("parameter-shift gradient: %d circuit(s) in one estimator job", n)

	job, err := g.estimator.Run(ctx, pubs)
	if err != nil {
		return nil, &AlgorithmError{Message: "estimator job failed", Err: err}
	}

	results, err := job.Result(ctx)
	if err != nil {
		return nil, &AlgorithmError{Message: "estimator job failed", Err: err}
	}

	if len(results) != n {
		return nil, &AlgorithmError{
			Message: fmt.Sprintf("estimator returned %d result(s) for %d pub(s)", len(results), n),
		}
	}

	gradients := make([][]float64, n)

	for i, res := range results {
		k := len(selected[i])
		if len(res.Evs) != 2*k {
			return nil, &AlgorithmError{
				Message: fmt.Sprintf("estimator returned %d value(s) for circuit %d, want %d", len(res.Evs), i, 2*k),
			}
		}

		shiftGrad := make([]float64, k)
		for m := 0; m < k; m++ {
			shiftGrad[m] = (res.Evs[m] - res.Evs[m+k]) / 2
		}

		gradients[i] = gradientCircuits[i].chain(shiftGrad, selected[i], parameters[i])
	}

	resolved, broadcast := resolvePrecision(precision, results)

	return &Result{
		Gradients: gradients,
		Metadata:  metadata,
		Precision: resolved,
		Broadcast: broadcast,
	}, nil
}

// resolvePrecision fills unset requests from the estimator metadata.
func resolvePrecision(precision Precision, results []estimator.PubResult) ([]float64, bool) {
	out := make([]float64, len(results))

	if !precision.IsPerCircuit() {
		if len(results) == 0 {
			return out, true
		}

		value := results[0].Metadata.TargetPrecision
		if precision.scalar != nil {
			value = *precision.scalar
		}
		for i := range out {
			out[i] = value
		}
		return out, true
	}

	for i, res := range results {
		if p := precision.perCircuit[i]; p != nil {
			out[i] = *p
			continue
		}
		out[i] = res.Metadata.TargetPrecision
	}
	return out, false
}
