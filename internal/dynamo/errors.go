package dynamo

import "errors"

// Domain errors for cost evaluation and trajectory sampling.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrInvalidShape indicates declared dimensions disagree with the
	// actual vector, matrix or batch shape.
	ErrInvalidShape = errors.New("dynamo: shape mismatch")

	// ErrInvalidConfiguration indicates parameters that cannot produce a
	// usable cost model, e.g. a singular input covariance.
	ErrInvalidConfiguration = errors.New("dynamo: invalid configuration")

	// ErrMissingConfigurationField indicates a required configuration key
	// was not supplied.
	ErrMissingConfigurationField = errors.New("dynamo: missing configuration field")
)

// StepError wraps an error with the trajectory cell it happened at.
type StepError struct {
	Step    int
	Sample  int
	Wrapped error
}

func (e *StepError) Error() string {
	return e.Wrapped.Error()
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
