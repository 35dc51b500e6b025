package bigint

import (
	"errors"
	"fmt"
)

// ArithmeticError reports an invalid arithmetic operation.
// These are programmer errors: once keys are validated they are not
// expected at the API boundary.
type ArithmeticError struct {
	Op  string // "modpow", "sub", "mod", "fill", "parse", "crt"
	Err error
}

// Error implements the error interface.
func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("bigint %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ArithmeticError) Unwrap() error { return e.Err }

func arithErr(op string, err error) *ArithmeticError {
	return &ArithmeticError{Op: op, Err: err}
}

// Sentinel errors for arithmetic operations.
var (
	// ErrDivisionByZero indicates a zero modulus or divisor.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrNegative indicates an operation whose result would be negative.
	ErrNegative = errors.New("negative result")

	// ErrOverflow indicates a value that does not fit the requested width.
	ErrOverflow = errors.New("value too large")

	// ErrMalformed indicates an unparsable integer literal.
	ErrMalformed = errors.New("malformed integer")
)
