/*
Package manifest reads gradient problems from YAML.

A problem lists circuits, each with its gates, observable, parameter
values and optionally the parameters to differentiate and a precision:

	precision: 0.01
	transpile:
	  physical_qubits: 4
	  layout: [3, 1]
	circuits:
	  - name: bell
	    qubits: 2
	    gates:
	      - {gate: h, qubits: [0]}
	      - {gate: ry, qubits: [0], param: a, coeff: 2, offset: 0.1}
	      - {gate: cx, qubits: [0, 1]}
	      - {gate: rz, qubits: [1], angle: 0.3}
	    observable: "ZZ - 0.5*XI"
	    values: [0.5]
	    parameters: [a]
*/
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/theapemachine/qgrad"
	"github.com/theapemachine/qgrad/circuit"
	"github.com/theapemachine/qgrad/observable"
)

var ErrInvalidManifest = errors.New("invalid manifest")

type Manifest struct {
	Precision *float64   `yaml:"precision,omitempty"`
	Transpile *Transpile `yaml:"transpile,omitempty"`
	Circuits  []Circuit  `yaml:"circuits"`
}

// Transpile places the circuits on a device before execution.
type Transpile struct {
	PhysicalQubits int   `yaml:"physical_qubits"`
	Layout         []int `yaml:"layout,omitempty"`
}

type Circuit struct {
	Name       string    `yaml:"name,omitempty"`
	Qubits     int       `yaml:"qubits"`
	Gates      []Gate    `yaml:"gates"`
	Observable string    `yaml:"observable"`
	Values     []float64 `yaml:"values,omitempty"`

	// Parameters selects what to differentiate; empty means all.
	Parameters []string `yaml:"parameters,omitempty"`
	Precision  *float64 `yaml:"precision,omitempty"`
}

/*
Gate is one instruction. A parameterized angle is coeff*param + offset,
coeff defaulting to 1; a constant angle is given by angle.
*/
type Gate struct {
	Gate   string   `yaml:"gate"`
	Qubits []int    `yaml:"qubits"`
	Param  string   `yaml:"param,omitempty"`
	Coeff  *float64 `yaml:"coeff,omitempty"`
	Offset float64  `yaml:"offset,omitempty"`
	Angle  *float64 `yaml:"angle,omitempty"`
}

// Problem is a manifest turned into the arguments of ParamShift.Run.
type Problem struct {
	Circuits    []*circuit.Circuit
	Observables []*observable.SparsePauliOp
	Values      [][]float64
	Parameters  [][]string
	Precision   qgrad.Precision
	Transpiler  circuit.Transpiler
}

// Load decodes a manifest, rejecting unknown fields.
func Load(r io.Reader) (*Manifest, error) {
	var m Manifest

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidManifest)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	return &m, nil
}

// LoadFile reads and decodes the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// Build constructs the circuits and observables of m.
func (m *Manifest) Build() (*Problem, error) {
	if len(m.Circuits) == 0 {
		return nil, fmt.Errorf("%w: no circuits", ErrInvalidManifest)
	}
	if m.Precision != nil && *m.Precision < 0 {
		return nil, fmt.Errorf("%w: negative precision %v", ErrInvalidManifest, *m.Precision)
	}

	problem := &Problem{
		Circuits:    make([]*circuit.Circuit, len(m.Circuits)),
		Observables: make([]*observable.SparsePauliOp, len(m.Circuits)),
		Values:      make([][]float64, len(m.Circuits)),
	}

	selects := false
	perCircuit := false

	for i, spec := range m.Circuits {
		c, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("%w: circuit %d: %v", ErrInvalidManifest, i, err)
		}

		obs, err := observable.Parse(spec.Observable)
		if err != nil {
			return nil, fmt.Errorf("%w: circuit %d: %v", ErrInvalidManifest, i, err)
		}

		problem.Circuits[i] = c
		problem.Observables[i] = obs
		problem.Values[i] = append([]float64{}, spec.Values...)

		selects = selects || len(spec.Parameters) > 0
		perCircuit = perCircuit || spec.Precision != nil
	}

	if selects {
		problem.Parameters = make([][]string, len(m.Circuits))
		for i, spec := range m.Circuits {
			if len(spec.Parameters) > 0 {
				problem.Parameters[i] = spec.Parameters
			}
		}
	}

	problem.Precision = m.precision(perCircuit)

	if m.Transpile != nil {
		problem.Transpiler = circuit.NewLayoutPass(m.Transpile.PhysicalQubits, m.Transpile.Layout)
	}

	return problem, nil
}

// precision uses the top-level precision for circuits that set none.
func (m *Manifest) precision(perCircuit bool) qgrad.Precision {
	if !perCircuit {
		if m.Precision != nil {
			return qgrad.Scalar(*m.Precision)
		}
		return qgrad.Precision{}
	}

	values := make([]*float64, len(m.Circuits))
	for i, spec := range m.Circuits {
		switch {
		case spec.Precision != nil:
			values[i] = qgrad.Float(*spec.Precision)
		case m.Precision != nil:
			values[i] = qgrad.Float(*m.Precision)
		}
	}
	return qgrad.PerCircuit(values...)
}

func (spec Circuit) build() (*circuit.Circuit, error) {
	if spec.Qubits <= 0 {
		return nil, fmt.Errorf("qubits must be positive, got %d", spec.Qubits)
	}

	c := circuit.New(spec.Qubits)
	c.Name = spec.Name

	for j, g := range spec.Gates {
		angle, err := g.angle()
		if err != nil {
			return nil, fmt.Errorf("gate %d: %w", j, err)
		}
		if err := c.Append(g.Gate, angle, g.Qubits...); err != nil {
			return nil, fmt.Errorf("gate %d: %w", j, err)
		}
	}

	return c, nil
}

func (g Gate) angle() (circuit.Angle, error) {
	switch {
	case g.Param != "" && g.Angle != nil:
		return circuit.Angle{}, fmt.Errorf("%s: both param and angle set", g.Gate)
	case g.Param != "":
		coeff := 1.0
		if g.Coeff != nil {
			coeff = *g.Coeff
		}
		return circuit.Linear(g.Param, coeff, g.Offset), nil
	case g.Angle != nil:
		return circuit.Fixed(*g.Angle + g.Offset), nil
	case g.Coeff != nil || g.Offset != 0:
		return circuit.Angle{}, fmt.Errorf("%s: coeff or offset without param", g.Gate)
	}
	return circuit.Angle{}, nil
}
