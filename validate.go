package qgrad

import (
	"fmt"

	"github.com/theapemachine/qgrad/circuit"
	"github.com/theapemachine/qgrad/observable"
)

// Validate checks the arguments of ParamShift.Run without running
// anything. Failures wrap ErrInvalidInput.
func Validate(
	circuits []*circuit.Circuit,
	observables []*observable.SparsePauliOp,
	parameterValues [][]float64,
	parameters [][]string,
	precision Precision,
) error {
	return validate(circuits, observables, parameterValues, parameters, precision)
}

func validate(
	circuits []*circuit.Circuit,
	observables []*observable.SparsePauliOp,
	parameterValues [][]float64,
	parameters [][]string,
	precision Precision,
) error {
	n := len(circuits)

	numParameters := n
	if parameters != nil {
		numParameters = len(parameters)
	}
	numPrecision := n
	if precision.IsPerCircuit() {
		numPrecision = len(precision.perCircuit)
	}

	if len(observables) != n || len(parameterValues) != n || numParameters != n || numPrecision != n {
		return fmt.Errorf(
			"%w: circuits, observables, parameters, parameter values and precision must have the same length, "+
				"but have respective lengths %d, %d, %d, %d and %d",
			ErrInvalidInput, n, len(observables), numParameters, len(parameterValues), numPrecision,
		)
	}

	if p := precision.scalar; p != nil && *p < 0 {
		return fmt.Errorf("%w: negative precision %v", ErrInvalidInput, *p)
	}

	for i, c := range circuits {
		if c == nil {
			return fmt.Errorf("%w: circuit %d is nil", ErrInvalidInput, i)
		}
		if err := c.Err(); err != nil {
			return fmt.Errorf("%w: circuit %d: %v", ErrInvalidInput, i, err)
		}

		obs := observables[i]
		if obs == nil {
			return fmt.Errorf("%w: observable %d is nil", ErrInvalidInput, i)
		}
		if obs.NumQubits() != c.NumQubits() {
			return fmt.Errorf(
				"%w: observable %d acts on %d qubit(s), circuit on %d",
				ErrInvalidInput, i, obs.NumQubits(), c.NumQubits(),
			)
		}

		if len(parameterValues[i]) != c.NumParameters() {
			return fmt.Errorf(
				"%w: parameter values %d have %d entries, circuit has %d parameter(s)",
				ErrInvalidInput, i, len(parameterValues[i]), c.NumParameters(),
			)
		}

		if parameters != nil {
			for _, name := range parameters[i] {
				if _, ok := c.ParameterIndex(name); !ok {
					return fmt.Errorf("%w: circuit %d has no parameter %q", ErrInvalidInput, i, name)
				}
			}
		}

		if precision.IsPerCircuit() {
			if p := precision.perCircuit[i]; p != nil && *p < 0 {
				return fmt.Errorf("%w: negative precision %v for circuit %d", ErrInvalidInput, *p, i)
			}
		}
	}

	return nil
}

// resolveParameters expands nil selections to every circuit parameter and
// orders each selection by the circuit's parameter order.
func resolveParameters(circuits []*circuit.Circuit, parameters [][]string) [][]string {
	out := make([][]string, len(circuits))

	for i, c := range circuits {
		if parameters == nil || parameters[i] == nil {
			out[i] = c.Parameters()
			continue
		}

		want := make(map[string]bool, len(parameters[i]))
		for _, name := range parameters[i] {
			want[name] = true
		}

		out[i] = make([]string, 0, len(want))
		for _, name := range c.Parameters() {
			if want[name] {
				out[i] = append(out[i], name)
			}
		}
	}

	return out
}
