package mixture

import (
	"errors"
	"fmt"
)

// Domain errors for grid construction and simulation.
var (
	// ErrInvalidLabel indicates a slice label outside the known categories.
	ErrInvalidLabel = errors.New("mixture: invalid material label")

	// ErrInvalidParameter indicates a physical or numerical parameter outside
	// its valid domain.
	ErrInvalidParameter = errors.New("mixture: invalid parameter")

	// ErrIllegalState indicates a model operation invoked out of sequence.
	ErrIllegalState = errors.New("mixture: illegal model state")

	// ErrIndexOutOfRange indicates a slice index beyond the volume bounds.
	ErrIndexOutOfRange = errors.New("mixture: index out of range")

	// ErrUnstable indicates the solution diverged (NaN or Inf detected).
	ErrUnstable = errors.New("mixture: simulation unstable (field diverged)")

	// ErrNotConverged indicates an iterative solve hit its sweep limit.
	ErrNotConverged = errors.New("mixture: solver did not converge")
)

// LabelError reports the first cell whose label has no material category.
type LabelError struct {
	Row, Col int
	Label    int
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("mixture: invalid material label %d at [%d,%d]", e.Label, e.Row, e.Col)
}

func (e *LabelError) Unwrap() error {
	return ErrInvalidLabel
}

// ParameterError wraps ErrInvalidParameter with the offending value.
type ParameterError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("mixture: invalid parameter %s=%g: %s", e.Name, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// RangeError wraps ErrIndexOutOfRange.
type RangeError struct {
	What  string
	Index int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("mixture: %s index %d out of range [0,%d)", e.What, e.Index, e.Len)
}

func (e *RangeError) Unwrap() error {
	return ErrIndexOutOfRange
}
