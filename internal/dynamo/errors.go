package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a position or velocity went NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidConfig indicates missing or degenerate configuration.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrNotInitialized indicates an operation on a simulator that was never initialized.
	ErrNotInitialized = errors.New("dynamo: simulator not initialized")

	// ErrReleased indicates an operation on a simulator whose buffers were released.
	ErrReleased = errors.New("dynamo: simulator released")

	// ErrBufferMismatch indicates per-node arrays fell out of lockstep.
	ErrBufferMismatch = errors.New("dynamo: buffer size mismatch")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
