package circuit

import "fmt"

// Transpiler rewrites circuits for a target device.
type Transpiler interface {
	Run(circuits []*Circuit) ([]*Circuit, error)
}

/*
LayoutPass places virtual qubits on a device with NumPhysical qubits.
InitialLayout[v] is the physical qubit for virtual qubit v; a nil layout
places qubit v on physical qubit v. The pass does no routing: gates are
relabelled, not rewritten.
*/
type LayoutPass struct {
	NumPhysical   int
	InitialLayout []int
}

// NewLayoutPass returns a pass for a device of numPhysical qubits.
func NewLayoutPass(numPhysical int, layout []int) *LayoutPass {
	return &LayoutPass{NumPhysical: numPhysical, InitialLayout: layout}
}

func (p *LayoutPass) Run(circuits []*Circuit) ([]*Circuit, error) {
	out := make([]*Circuit, len(circuits))

	for i, c := range circuits {
		layout, err := p.layoutFor(c)
		if err != nil {
			return nil, fmt.Errorf("layout of circuit %d: %w", i, err)
		}

		mapped := New(p.NumPhysical)
		mapped.Name = c.Name
		mapped.Layout = layout

		for _, g := range c.gates {
			qubits := make([]int, len(g.Qubits))
			for j, q := range g.Qubits {
				qubits[j] = layout[q]
			}
			if err := mapped.Append(g.Name, g.Angle, qubits...); err != nil {
				return nil, fmt.Errorf("layout of circuit %d: %w", i, err)
			}
		}

		out[i] = mapped
	}

	return out, nil
}

func (p *LayoutPass) layoutFor(c *Circuit) ([]int, error) {
	if c.numQubits > p.NumPhysical {
		return nil, fmt.Errorf("%w: %d virtual qubits on a %d-qubit device", ErrInvalidLayout, c.numQubits, p.NumPhysical)
	}

	layout := make([]int, c.numQubits)
	if p.InitialLayout == nil {
		for v := range layout {
			layout[v] = v
		}
		return layout, nil
	}

	if len(p.InitialLayout) < c.numQubits {
		return nil, fmt.Errorf("%w: %d entries for %d qubits", ErrInvalidLayout, len(p.InitialLayout), c.numQubits)
	}

	used := make(map[int]bool, c.numQubits)
	for v := range layout {
		phys := p.InitialLayout[v]
		if phys < 0 || phys >= p.NumPhysical || used[phys] {
			return nil, fmt.Errorf("%w: physical qubit %d", ErrInvalidLayout, phys)
		}
		used[phys] = true
		layout[v] = phys
	}
	return layout, nil
}
