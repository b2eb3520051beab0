package qgrad

import "errors"

// ErrInvalidInput marks caller mistakes: mismatched sequence lengths,
// wrong assignment sizes, unknown parameters.
var ErrInvalidInput = errors.New("invalid gradient input")

// AlgorithmError reports a failure while executing the gradient, as
// opposed to malformed input. The cause is available via errors.Unwrap.
type AlgorithmError struct {
	Message string
	Err     error
}

func (e *AlgorithmError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AlgorithmError) Unwrap() error {
	return e.Err
}
