package ecsim

import (
	"errors"
	"fmt"
)

// Common errors returned by the simulator core.
var (
	// ErrDivisionByZero is returned when a field inversion of the zero
	// element is attempted. It is always propagated to the caller.
	ErrDivisionByZero = errors.New("division by zero in field")

	// ErrUnsupportedConfiguration is returned at configuration build time
	// when the requested combination of model, coordinate system, formulas,
	// multiplier and backend cannot work together.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")

	// ErrInvalidDomainParameters is returned when curve parameters fail
	// validation (generator not on curve, order mismatch, ...).
	ErrInvalidDomainParameters = errors.New("invalid domain parameters")

	// ErrPointNotOnCurve is returned when a coordinate value is
	// inconsistent with the active curve.
	ErrPointNotOnCurve = errors.New("point not on curve")

	// ErrIdentityElementMisuse is returned when the identity element is
	// passed to an operation that structurally cannot accept it.
	ErrIdentityElementMisuse = errors.New("identity element misuse")
)

// FormulaLoadError reports a malformed formula source encountered while
// loading the formula database. It is fatal to that formula only; the
// loader continues with the remaining entries.
type FormulaLoadError struct {
	Name   string
	Reason string
	Err    error
}

func (e *FormulaLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("formula %q: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("formula %q: %s", e.Name, e.Reason)
}

func (e *FormulaLoadError) Unwrap() error {
	return e.Err
}

// NewFormulaLoadError creates a new FormulaLoadError.
func NewFormulaLoadError(name, reason string, err error) *FormulaLoadError {
	return &FormulaLoadError{Name: name, Reason: reason, Err: err}
}
