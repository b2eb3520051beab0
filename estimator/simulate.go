package estimator

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/theapemachine/qgrad/circuit"
	"github.com/theapemachine/qgrad/observable"
)

type matrix2 [2][2]complex128

var (
	pauliX = matrix2{{0, 1}, {1, 0}}
	pauliY = matrix2{{0, -1i}, {1i, 0}}
	pauliZ = matrix2{{1, 0}, {0, -1}}
)

var hadamard = matrix2{
	{complex(math.Sqrt2/2, 0), complex(math.Sqrt2/2, 0)},
	{complex(math.Sqrt2/2, 0), complex(-math.Sqrt2/2, 0)},
}

func phase(theta float64) matrix2 {
	return matrix2{{1, 0}, {0, cmplx.Exp(complex(0, theta))}}
}

func rzMatrix(theta float64) matrix2 {
	return matrix2{
		{cmplx.Exp(complex(0, -theta/2)), 0},
		{0, cmplx.Exp(complex(0, theta/2))},
	}
}

type pauliOp struct {
	qubit int
	kind  byte
}

// simulate returns the statevector of c applied to |0...0>.
func simulate(c *circuit.Circuit, angles []float64) ([]complex128, error) {
	state := make([]complex128, 1<<c.NumQubits())
	state[0] = 1

	for i, g := range c.Gates() {
		next, err := applyGate(state, g, angles[i])
		if err != nil {
			return nil, err
		}
		state = next
	}

	return state, nil
}

func applyGate(state []complex128, g circuit.Gate, theta float64) ([]complex128, error) {
	q := g.Qubits

	switch g.Name {
	case "x":
		apply1q(state, q[0], pauliX)
	case "y":
		apply1q(state, q[0], pauliY)
	case "z":
		apply1q(state, q[0], pauliZ)
	case "h":
		apply1q(state, q[0], hadamard)
	case "s":
		apply1q(state, q[0], phase(math.Pi/2))
	case "sdg":
		apply1q(state, q[0], phase(-math.Pi/2))
	case "t":
		apply1q(state, q[0], phase(math.Pi/4))
	case "tdg":
		apply1q(state, q[0], phase(-math.Pi/4))
	case "p":
		apply1q(state, q[0], phase(theta))
	case "rx":
		return rotate(state, []pauliOp{{q[0], 'X'}}, theta), nil
	case "ry":
		return rotate(state, []pauliOp{{q[0], 'Y'}}, theta), nil
	case "rz":
		return rotate(state, []pauliOp{{q[0], 'Z'}}, theta), nil
	case "cx":
		applyControlled(state, q[0], q[1], pauliX)
	case "cy":
		applyControlled(state, q[0], q[1], pauliY)
	case "cz":
		applyControlled(state, q[0], q[1], pauliZ)
	case "crz":
		applyControlled(state, q[0], q[1], rzMatrix(theta))
	case "rxx":
		return rotate(state, []pauliOp{{q[0], 'X'}, {q[1], 'X'}}, theta), nil
	case "ryy":
		return rotate(state, []pauliOp{{q[0], 'Y'}, {q[1], 'Y'}}, theta), nil
	case "rzz":
		return rotate(state, []pauliOp{{q[0], 'Z'}, {q[1], 'Z'}}, theta), nil
	case "rzx":
		return rotate(state, []pauliOp{{q[0], 'Z'}, {q[1], 'X'}}, theta), nil
	default:
		return nil, fmt.Errorf("%w: statevector cannot apply %q", ErrInvalidPUB, g.Name)
	}

	return state, nil
}

func apply1q(state []complex128, q int, m matrix2) {
	bit := 1 << q
	for k := range state {
		if k&bit != 0 {
			continue
		}
		a0, a1 := state[k], state[k|bit]
		state[k] = m[0][0]*a0 + m[0][1]*a1
		state[k|bit] = m[1][0]*a0 + m[1][1]*a1
	}
}

func applyControlled(state []complex128, control, target int, m matrix2) {
	cbit, tbit := 1<<control, 1<<target
	for k := range state {
		if k&cbit == 0 || k&tbit != 0 {
			continue
		}
		a0, a1 := state[k], state[k|tbit]
		state[k] = m[0][0]*a0 + m[0][1]*a1
		state[k|tbit] = m[1][0]*a0 + m[1][1]*a1
	}
}

// applyPauli returns P|state> for the Pauli string ops.
func applyPauli(state []complex128, ops []pauliOp) []complex128 {
	out := make([]complex128, len(state))

	for k, amp := range state {
		if amp == 0 {
			continue
		}

		idx := k
		ph := complex(1, 0)

		for _, op := range ops {
			bit := (k >> op.qubit) & 1
			switch op.kind {
			case 'X':
				idx ^= 1 << op.qubit
			case 'Y':
				idx ^= 1 << op.qubit
				if bit == 0 {
					ph *= 1i
				} else {
					ph *= -1i
				}
			case 'Z':
				if bit == 1 {
					ph = -ph
				}
			}
		}

		out[idx] += ph * amp
	}

	return out
}

// rotate applies exp(-i theta/2 P) = cos(theta/2) I - i sin(theta/2) P.
func rotate(state []complex128, ops []pauliOp, theta float64) []complex128 {
	c := complex(math.Cos(theta/2), 0)
	s := complex(0, -math.Sin(theta/2))
	flipped := applyPauli(state, ops)

	out := make([]complex128, len(state))
	for k := range state {
		out[k] = c*state[k] + s*flipped[k]
	}
	return out
}

func labelOps(label string) []pauliOp {
	n := len(label)
	ops := make([]pauliOp, 0, n)
	for j := 0; j < n; j++ {
		if label[j] != 'I' {
			ops = append(ops, pauliOp{qubit: n - 1 - j, kind: label[j]})
		}
	}
	return ops
}

// expectation returns Re <state|O|state>.
func expectation(state []complex128, o *observable.SparsePauliOp) float64 {
	var total complex128

	for _, term := range o.Terms() {
		flipped := applyPauli(state, labelOps(term.Label))

		var inner complex128
		for k, amp := range state {
			inner += cmplx.Conj(amp) * flipped[k]
		}
		total += term.Coeff * inner
	}

	return real(total)
}
