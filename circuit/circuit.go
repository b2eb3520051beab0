package circuit

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownGate   = errors.New("unknown gate")
	ErrInvalidQubit  = errors.New("invalid qubit")
	ErrInvalidAngle  = errors.New("invalid angle")
	ErrBinding       = errors.New("parameter binding")
	ErrInvalidLayout = errors.New("invalid layout")
)

/*
Circuit is an ordered list of gates over a fixed number of qubits.
Parameters are ordered by their first appearance, which is also the order
in which parameter values are bound.
*/
type Circuit struct {
	Name string

	// Layout maps virtual qubit v to physical qubit Layout[v]. It is nil
	// for circuits that were not laid out.
	Layout []int

	numQubits int
	gates     []Gate
	params    []string
	index     map[string]int
	err       error
}

// New creates an empty circuit on numQubits qubits.
func New(numQubits int) *Circuit {
	return &Circuit{
		numQubits: numQubits,
		index:     make(map[string]int),
	}
}

// Append validates and adds a gate.
func (c *Circuit) Append(name string, angle Angle, qubits ...int) error {
	spec, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGate, name)
	}

	if len(qubits) != spec.NumQubits {
		return fmt.Errorf("%w: %s acts on %d qubit(s), got %d", ErrInvalidQubit, name, spec.NumQubits, len(qubits))
	}

	seen := make(map[int]bool, len(qubits))
	for _, q := range qubits {
		if q < 0 || q >= c.numQubits {
			return fmt.Errorf("%w: %s on qubit %d of a %d-qubit circuit", ErrInvalidQubit, name, q, c.numQubits)
		}
		if seen[q] {
			return fmt.Errorf("%w: %s repeats qubit %d", ErrInvalidQubit, name, q)
		}
		seen[q] = true
	}

	if !spec.Parametric && (angle.IsParameterized() || angle.Offset != 0) {
		return fmt.Errorf("%w: %s takes no angle", ErrInvalidAngle, name)
	}

	if angle.IsParameterized() {
		if _, exists := c.index[angle.Param]; !exists {
			c.index[angle.Param] = len(c.params)
			c.params = append(c.params, angle.Param)
		}
	}

	gate := Gate{Name: name, Qubits: qubits, Angle: angle}
	c.gates = append(c.gates, gate.clone())
	return nil
}

func (c *Circuit) add(name string, angle Angle, qubits ...int) *Circuit {
	if c.err != nil {
		return c
	}
	c.err = c.Append(name, angle, qubits...)
	return c
}

func (c *Circuit) X(q int) *Circuit   { return c.add("x", Angle{}, q) }
func (c *Circuit) Y(q int) *Circuit   { return c.add("y", Angle{}, q) }
func (c *Circuit) Z(q int) *Circuit   { return c.add("z", Angle{}, q) }
func (c *Circuit) H(q int) *Circuit   { return c.add("h", Angle{}, q) }
func (c *Circuit) S(q int) *Circuit   { return c.add("s", Angle{}, q) }
func (c *Circuit) Sdg(q int) *Circuit { return c.add("sdg", Angle{}, q) }
func (c *Circuit) T(q int) *Circuit   { return c.add("t", Angle{}, q) }
func (c *Circuit) Tdg(q int) *Circuit { return c.add("tdg", Angle{}, q) }

func (c *Circuit) RX(a Angle, q int) *Circuit { return c.add("rx", a, q) }
func (c *Circuit) RY(a Angle, q int) *Circuit { return c.add("ry", a, q) }
func (c *Circuit) RZ(a Angle, q int) *Circuit { return c.add("rz", a, q) }
func (c *Circuit) P(a Angle, q int) *Circuit  { return c.add("p", a, q) }

func (c *Circuit) CX(control, target int) *Circuit { return c.add("cx", Angle{}, control, target) }
func (c *Circuit) CY(control, target int) *Circuit { return c.add("cy", Angle{}, control, target) }
func (c *Circuit) CZ(control, target int) *Circuit { return c.add("cz", Angle{}, control, target) }

func (c *Circuit) CRZ(a Angle, control, target int) *Circuit {
	return c.add("crz", a, control, target)
}

func (c *Circuit) RXX(a Angle, q0, q1 int) *Circuit { return c.add("rxx", a, q0, q1) }
func (c *Circuit) RYY(a Angle, q0, q1 int) *Circuit { return c.add("ryy", a, q0, q1) }
func (c *Circuit) RZZ(a Angle, q0, q1 int) *Circuit { return c.add("rzz", a, q0, q1) }

// RZX applies exp(-i a/2 Z⊗X) with Z on q0 and X on q1.
func (c *Circuit) RZX(a Angle, q0, q1 int) *Circuit { return c.add("rzx", a, q0, q1) }

// Err returns the first error recorded by the chained builder methods.
func (c *Circuit) Err() error {
	return c.err
}

func (c *Circuit) NumQubits() int {
	return c.numQubits
}

func (c *Circuit) NumParameters() int {
	return len(c.params)
}

// Parameters returns the parameter names in binding order.
func (c *Circuit) Parameters() []string {
	out := make([]string, len(c.params))
	copy(out, c.params)
	return out
}

// ParameterIndex returns the binding position of a parameter.
func (c *Circuit) ParameterIndex(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Gates returns a copy of the gate list.
func (c *Circuit) Gates() []Gate {
	out := make([]Gate, len(c.gates))
	for i, g := range c.gates {
		out[i] = g.clone()
	}
	return out
}

// Bind evaluates the angle of every gate for the given parameter values.
// The result is parallel to Gates.
func (c *Circuit) Bind(values []float64) ([]float64, error) {
	if len(values) != len(c.params) {
		return nil, fmt.Errorf("%w: circuit has %d parameter(s), got %d value(s)", ErrBinding, len(c.params), len(values))
	}

	angles := make([]float64, len(c.gates))
	for i, g := range c.gates {
		if g.Angle.IsParameterized() {
			angles[i] = g.Angle.Eval(values[c.index[g.Angle.Param]])
			continue
		}
		angles[i] = g.Angle.Offset
	}
	return angles, nil
}

// Copy returns a deep copy of the circuit.
func (c *Circuit) Copy() *Circuit {
	out := New(c.numQubits)
	out.Name = c.Name
	out.err = c.err
	if c.Layout != nil {
		out.Layout = append([]int(nil), c.Layout...)
	}
	for _, g := range c.gates {
		out.gates = append(out.gates, g.clone())
	}
	out.params = append(out.params, c.params...)
	for k, v := range c.index {
		out.index[k] = v
	}
	return out
}

func (c *Circuit) String() string {
	name := c.Name
	if name == "" {
		name = "circuit"
	}
	return fmt.Sprintf("%s(qubits=%d, gates=%d, parameters=%v)", name, c.numQubits, len(c.gates), c.params)
}
