package qgrad

import (
	"fmt"
	"math"

	"github.com/theapemachine/qgrad/circuit"
)

// SupportedGates are the gates the parameter-shift rule is applied to
// directly. Parameterized gates in this set have generators with
// eigenvalues ±1/2, so a shift of ±π/2 gives the exact derivative.
var SupportedGates = []string{
	"x", "y", "z", "h",
	"rx", "ry", "rz", "p",
	"cx", "cy", "cz",
	"ryy", "rxx", "rzz", "rzx",
}

var supported = func() map[string]bool {
	m := make(map[string]bool, len(SupportedGates))
	for _, name := range SupportedGates {
		m[name] = true
	}
	return m
}()

// occurrence ties gradient parameter g_j to the circuit parameter it
// came from: g_j = coeff*param + offset.
type occurrence struct {
	param  string
	coeff  float64
	offset float64
}

/*
gradientCircuit is a circuit rewritten for differentiation: gates outside
SupportedGates are unrolled, and every parameterized angle gets its own
gradient parameter. The derivative with respect to a circuit parameter is
then the coefficient-weighted sum of the derivatives with respect to its
gradient parameters.
*/
type gradientCircuit struct {
	source      *circuit.Circuit
	circuit     *circuit.Circuit
	occurrences []occurrence
}

func gradientParamName(j int) string {
	return fmt.Sprintf("_g[%d]", j)
}

func newGradientCircuit(c *circuit.Circuit) (*gradientCircuit, error) {
	gc := &gradientCircuit{
		source:  c,
		circuit: circuit.New(c.NumQubits()),
	}
	gc.circuit.Name = c.Name

	for _, g := range c.Gates() {
		if err := gc.unroll(g); err != nil {
			return nil, fmt.Errorf("%w: circuit %s: %v", ErrInvalidInput, c, err)
		}
	}

	return gc, nil
}

func (gc *gradientCircuit) unroll(g circuit.Gate) error {
	q := g.Qubits

	switch g.Name {
	case "s":
		return gc.emit("p", circuit.Fixed(math.Pi/2), q...)
	case "sdg":
		return gc.emit("p", circuit.Fixed(-math.Pi/2), q...)
	case "t":
		return gc.emit("p", circuit.Fixed(math.Pi/4), q...)
	case "tdg":
		return gc.emit("p", circuit.Fixed(-math.Pi/4), q...)
	case "crz":
		control, target := q[0], q[1]
		for _, step := range []struct {
			name   string
			angle  circuit.Angle
			qubits []int
		}{
			{"rz", g.Angle.Scale(0.5), []int{target}},
			{"cx", circuit.Angle{}, []int{control, target}},
			{"rz", g.Angle.Scale(-0.5), []int{target}},
			{"cx", circuit.Angle{}, []int{control, target}},
		} {
			if err := gc.emit(step.name, step.angle, step.qubits...); err != nil {
				return err
			}
		}
		return nil
	}

	if !supported[g.Name] {
		return fmt.Errorf("gate %q is not supported by the parameter-shift rule", g.Name)
	}
	return gc.emit(g.Name, g.Angle, q...)
}

// emit appends a supported gate, replacing a parameterized angle with a
// fresh gradient parameter.
func (gc *gradientCircuit) emit(name string, angle circuit.Angle, qubits ...int) error {
	if angle.IsParameterized() {
		j := len(gc.occurrences)
		gc.occurrences = append(gc.occurrences, occurrence{
			param:  angle.Param,
			coeff:  angle.Coeff,
			offset: angle.Offset,
		})
		angle = circuit.Param(gradientParamName(j))
	}
	return gc.circuit.Append(name, angle, qubits...)
}

// values maps an assignment of the source circuit to values of the
// gradient parameters, keyed by gradient parameter name.
func (gc *gradientCircuit) values(sourceValues []float64) map[string]float64 {
	out := make(map[string]float64, len(gc.occurrences))
	for j, occ := range gc.occurrences {
		i, _ := gc.source.ParameterIndex(occ.param)
		out[gradientParamName(j)] = occ.coeff*sourceValues[i] + occ.offset
	}
	return out
}

// selected returns the gradient parameters belonging to params, in
// gradient parameter order.
func (gc *gradientCircuit) selected(params []string) []int {
	want := make(map[string]bool, len(params))
	for _, p := range params {
		want[p] = true
	}

	var out []int
	for j, occ := range gc.occurrences {
		if want[occ.param] {
			out = append(out, j)
		}
	}
	return out
}

/*
shiftedValues builds the 2k assignments for executed, the circuit that is
actually sent to the estimator (the gradient circuit, possibly
transpiled). Rows 0..k-1 shift the selected gradient parameters by +π/2,
rows k..2k-1 by -π/2.
*/
func (gc *gradientCircuit) shiftedValues(executed *circuit.Circuit, sourceValues []float64, selected []int) ([][]float64, error) {
	byName := gc.values(sourceValues)

	base := make([]float64, executed.NumParameters())
	for i, name := range executed.Parameters() {
		v, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("executed circuit has unknown parameter %q", name)
		}
		base[i] = v
	}

	k := len(selected)
	rows := make([][]float64, 2*k)

	for m, j := range selected {
		idx, ok := executed.ParameterIndex(gradientParamName(j))
		if !ok {
			return nil, fmt.Errorf("executed circuit lost gradient parameter %q", gradientParamName(j))
		}

		plus := append([]float64(nil), base...)
		minus := append([]float64(nil), base...)
		plus[idx] += math.Pi / 2
		minus[idx] -= math.Pi / 2

		rows[m] = plus
		rows[m+k] = minus
	}

	return rows, nil
}

// chain folds the per-gradient-parameter derivatives back onto params.
func (gc *gradientCircuit) chain(shiftGrad []float64, selected []int, params []string) []float64 {
	position := make(map[string]int, len(params))
	for i, p := range params {
		position[p] = i
	}

	out := make([]float64, len(params))
	for m, j := range selected {
		occ := gc.occurrences[j]
		out[position[occ.param]] += occ.coeff * shiftGrad[m]
	}
	return out
}
