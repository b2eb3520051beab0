package qgrad

// Precision is the requested target precision of a gradient run: unset,
// one scalar for every circuit, or one value per circuit.
type Precision struct {
	scalar     *float64
	perCircuit []*float64
}

// Scalar applies v to every circuit.
func Scalar(v float64) Precision {
	return Precision{scalar: &v}
}

// PerCircuit sets one precision per circuit. Nil entries use the
// estimator default for that circuit.
func PerCircuit(values ...*float64) Precision {
	return Precision{perCircuit: append([]*float64{}, values...)}
}

// Float returns a pointer to v, for building PerCircuit precisions.
func Float(v float64) *float64 {
	return &v
}

// IsUnset reports whether no precision was requested.
func (p Precision) IsUnset() bool {
	return p.scalar == nil && p.perCircuit == nil
}

// IsPerCircuit reports whether the precision was given per circuit.
func (p Precision) IsPerCircuit() bool {
	return p.perCircuit != nil
}

// forCircuit is the precision to request for circuit i, nil meaning the
// estimator default.
func (p Precision) forCircuit(i int) *float64 {
	if p.perCircuit != nil {
		return p.perCircuit[i]
	}
	return p.scalar
}
