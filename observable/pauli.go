// Package observable holds sparse Pauli operators, the observables whose
// expectation values are estimated.
package observable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidOperator = errors.New("invalid operator")

// Term is coeff * P for a Pauli label such as "XZI". The rightmost
// character acts on qubit 0.
type Term struct {
	Label string
	Coeff complex128
}

// SparsePauliOp is a sum of Pauli terms over a fixed number of qubits.
type SparsePauliOp struct {
	terms     []Term
	numQubits int
}

// New validates the terms and builds an operator.
func New(terms ...Term) (*SparsePauliOp, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: no terms", ErrInvalidOperator)
	}

	n := len(terms[0].Label)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty label", ErrInvalidOperator)
	}

	for _, term := range terms {
		if len(term.Label) != n {
			return nil, fmt.Errorf("%w: label %q has %d qubits, want %d", ErrInvalidOperator, term.Label, len(term.Label), n)
		}
		for _, r := range term.Label {
			if !strings.ContainsRune("IXYZ", r) {
				return nil, fmt.Errorf("%w: label %q contains %q", ErrInvalidOperator, term.Label, r)
			}
		}
	}

	out := make([]Term, len(terms))
	copy(out, terms)
	return &SparsePauliOp{terms: out, numQubits: n}, nil
}

// FromLabel returns the single Pauli term 1 * label.
func FromLabel(label string) (*SparsePauliOp, error) {
	return New(Term{Label: label, Coeff: 1})
}

/*
Parse reads a real-coefficient sum such as "ZZ - 0.5*XI + 2*IY". A term
without a coefficient has coefficient 1.
*/
func Parse(s string) (*SparsePauliOp, error) {
	expr := strings.ReplaceAll(s, " ", "")
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidOperator)
	}

	var terms []Term
	for _, raw := range splitTerms(expr) {
		term, err := parseTerm(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidOperator, raw, err)
		}
		terms = append(terms, term)
	}

	return New(terms...)
}

// splitTerms cuts at top-level signs, keeping each sign with its term and
// leaving exponent signs such as 1e-3 alone.
func splitTerms(expr string) []string {
	var out []string
	start := 0

	for i := 1; i < len(expr); i++ {
		if expr[i] != '+' && expr[i] != '-' {
			continue
		}
		if prev := expr[i-1]; prev == 'e' || prev == 'E' || prev == '*' || prev == '+' || prev == '-' {
			continue
		}
		out = append(out, expr[start:i])
		start = i
	}

	return append(out, expr[start:])
}

func parseTerm(raw string) (Term, error) {
	sign := 1.0
	switch {
	case strings.HasPrefix(raw, "+"):
		raw = raw[1:]
	case strings.HasPrefix(raw, "-"):
		sign = -1
		raw = raw[1:]
	}

	coeff := 1.0
	label := raw

	if i := strings.LastIndex(raw, "*"); i >= 0 {
		v, err := strconv.ParseFloat(raw[:i], 64)
		if err != nil {
			return Term{}, err
		}
		coeff = v
		label = raw[i+1:]
	}

	if label == "" {
		return Term{}, errors.New("missing label")
	}

	return Term{Label: label, Coeff: complex(sign*coeff, 0)}, nil
}

func (o *SparsePauliOp) NumQubits() int {
	return o.numQubits
}

// Terms returns a copy of the terms.
func (o *SparsePauliOp) Terms() []Term {
	out := make([]Term, len(o.terms))
	copy(out, o.terms)
	return out
}

/*
ApplyLayout returns the operator acting on a device of numQubits qubits,
where layout[v] is the physical qubit holding virtual qubit v. A nil layout
only pads the operator with identities up to numQubits.
*/
func (o *SparsePauliOp) ApplyLayout(layout []int, numQubits int) (*SparsePauliOp, error) {
	if numQubits < o.numQubits {
		return nil, fmt.Errorf("%w: cannot place %d qubits on %d", ErrInvalidOperator, o.numQubits, numQubits)
	}

	if layout == nil {
		layout = make([]int, o.numQubits)
		for v := range layout {
			layout[v] = v
		}
	}

	if len(layout) != o.numQubits {
		return nil, fmt.Errorf("%w: layout has %d entries for %d qubits", ErrInvalidOperator, len(layout), o.numQubits)
	}

	terms := make([]Term, len(o.terms))
	for i, term := range o.terms {
		label := []byte(strings.Repeat("I", numQubits))

		for v, phys := range layout {
			if phys < 0 || phys >= numQubits {
				return nil, fmt.Errorf("%w: physical qubit %d", ErrInvalidOperator, phys)
			}
			label[numQubits-1-phys] = term.Label[o.numQubits-1-v]
		}

		terms[i] = Term{Label: string(label), Coeff: term.Coeff}
	}

	return New(terms...)
}

func (o *SparsePauliOp) String() string {
	parts := make([]string, len(o.terms))
	for i, term := range o.terms {
		c := term.Coeff
		if imag(c) == 0 {
			parts[i] = fmt.Sprintf("%s*%s", strconv.FormatFloat(real(c), 'g', -1, 64), term.Label)
			continue
		}
		parts[i] = fmt.Sprintf("%v*%s", c, term.Label)
	}
	return strings.Join(parts, " + ")
}
