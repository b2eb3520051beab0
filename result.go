package qgrad

// Metadata identifies what a gradient was taken with respect to.
type Metadata struct {
	// Parameters lists the differentiated parameters in the order of the
	// entries of the corresponding gradient.
	Parameters []string
}

// Result holds one gradient, metadata entry and resolved precision per
// circuit.
type Result struct {
	Gradients [][]float64
	Metadata  []Metadata
	Precision []float64

	// Broadcast is true when a single precision (requested or the
	// estimator default) applies to every circuit.
	Broadcast bool
}
