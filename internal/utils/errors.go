package utils

import "fmt"

// DomainError represents an input outside the mathematically valid range,
// such as a probability at or beyond 0 or 1 passed to a distribution inverse.
type DomainError struct {
	Message string
}

// Error returns the error message string.
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new DomainError with a specific message.
func NewDomainError(message string) error {
	return &DomainError{
		Message: message,
	}
}

// NewDomainErrorf creates a new DomainError with a formatted message.
func NewDomainErrorf(format string, args ...interface{}) error {
	return &DomainError{
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidInputError represents structurally invalid observations, such as
// zero or negative sample sizes or conversions exceeding visitors.
type InvalidInputError struct {
	Message string
}

// Error returns the error message string.
func (e *InvalidInputError) Error() string {
	return e.Message
}

// NewInvalidInputError creates a new InvalidInputError with a specific message.
func NewInvalidInputError(message string) error {
	return &InvalidInputError{
		Message: message,
	}
}

// NewInvalidInputErrorf creates a new InvalidInputError with a formatted message.
func NewInvalidInputErrorf(format string, args ...interface{}) error {
	return &InvalidInputError{
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidDesignError represents an experiment design that cannot be analyzed,
// such as traffic allocations not summing to 100 or a missing control variant.
type InvalidDesignError struct {
	Message string
}

// Error returns the error message string.
func (e *InvalidDesignError) Error() string {
	return e.Message
}

// NewInvalidDesignError creates a new InvalidDesignError with a specific message.
func NewInvalidDesignError(message string) error {
	return &InvalidDesignError{
		Message: message,
	}
}

// NewInvalidDesignErrorf creates a new InvalidDesignError with a formatted message.
func NewInvalidDesignErrorf(format string, args ...interface{}) error {
	return &InvalidDesignError{
		Message: fmt.Sprintf(format, args...),
	}
}

// NonConvergenceError signals that an iterative solver exhausted its iteration
// budget. It is not fatal: BestEstimate carries the last midpoint and callers
// may use it as an approximate answer.
type NonConvergenceError struct {
	Message      string
	Iterations   int
	BestEstimate float64
}

// Error returns the error message string.
func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%s (best estimate %.6f after %d iterations)", e.Message, e.BestEstimate, e.Iterations)
}

// NewNonConvergenceError creates a new NonConvergenceError carrying the best
// estimate reached before the iteration cap.
func NewNonConvergenceError(message string, iterations int, bestEstimate float64) error {
	return &NonConvergenceError{
		Message:      message,
		Iterations:   iterations,
		BestEstimate: bestEstimate,
	}
}
