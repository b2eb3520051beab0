package circuit

import (
	"fmt"
	"strconv"
)

// Angle is a gate rotation angle of the form Coeff*Param + Offset. An
// Angle with an empty Param is the constant Offset.
type Angle struct {
	Param  string
	Coeff  float64
	Offset float64
}

// Fixed returns a constant angle.
func Fixed(v float64) Angle {
	return Angle{Offset: v}
}

// Param returns an angle equal to the named parameter.
func Param(name string) Angle {
	return Angle{Param: name, Coeff: 1}
}

// Linear returns coeff*name + offset.
func Linear(name string, coeff, offset float64) Angle {
	return Angle{Param: name, Coeff: coeff, Offset: offset}
}

// IsParameterized reports whether the angle depends on a parameter.
func (a Angle) IsParameterized() bool {
	return a.Param != ""
}

// Eval returns the angle for the given parameter value. Constant angles
// ignore theta.
func (a Angle) Eval(theta float64) float64 {
	if !a.IsParameterized() {
		return a.Offset
	}
	return a.Coeff*theta + a.Offset
}

// Scale multiplies the whole expression by k.
func (a Angle) Scale(k float64) Angle {
	return Angle{Param: a.Param, Coeff: a.Coeff * k, Offset: a.Offset * k}
}

func (a Angle) String() string {
	if !a.IsParameterized() {
		return strconv.FormatFloat(a.Offset, 'g', -1, 64)
	}

	s := a.Param
	if a.Coeff != 1 {
		s = strconv.FormatFloat(a.Coeff, 'g', -1, 64) + "*" + s
	}
	if a.Offset != 0 {
		s += fmt.Sprintf(" + %s", strconv.FormatFloat(a.Offset, 'g', -1, 64))
	}
	return s
}

// Gate is one instruction of a circuit. Angle is the zero value for gates
// that take no angle.
type Gate struct {
	Name   string
	Qubits []int
	Angle  Angle
}

// GateSpec describes a gate of the vocabulary.
type GateSpec struct {
	Name       string
	NumQubits  int
	Parametric bool
}

var vocabulary = map[string]GateSpec{
	"x":   {Name: "x", NumQubits: 1},
	"y":   {Name: "y", NumQubits: 1},
	"z":   {Name: "z", NumQubits: 1},
	"h":   {Name: "h", NumQubits: 1},
	"s":   {Name: "s", NumQubits: 1},
	"sdg": {Name: "sdg", NumQubits: 1},
	"t":   {Name: "t", NumQubits: 1},
	"tdg": {Name: "tdg", NumQubits: 1},
	"rx":  {Name: "rx", NumQubits: 1, Parametric: true},
	"ry":  {Name: "ry", NumQubits: 1, Parametric: true},
	"rz":  {Name: "rz", NumQubits: 1, Parametric: true},
	"p":   {Name: "p", NumQubits: 1, Parametric: true},
	"cx":  {Name: "cx", NumQubits: 2},
	"cy":  {Name: "cy", NumQubits: 2},
	"cz":  {Name: "cz", NumQubits: 2},
	"crz": {Name: "crz", NumQubits: 2, Parametric: true},
	"rxx": {Name: "rxx", NumQubits: 2, Parametric: true},
	"ryy": {Name: "ryy", NumQubits: 2, Parametric: true},
	"rzz": {Name: "rzz", NumQubits: 2, Parametric: true},
	"rzx": {Name: "rzx", NumQubits: 2, Parametric: true},
}

// Lookup returns the spec of a gate name.
func Lookup(name string) (GateSpec, bool) {
	spec, ok := vocabulary[name]
	return spec, ok
}

func (g Gate) clone() Gate {
	qubits := make([]int, len(g.Qubits))
	copy(qubits, g.Qubits)
	return Gate{Name: g.Name, Qubits: qubits, Angle: g.Angle}
}
