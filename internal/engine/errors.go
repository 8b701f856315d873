package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while executing a module.
//
// Runtime errors include:
//   - Unresolved symbol: a declared function has no body anywhere
//   - Divide by zero: integer division or remainder by zero
//   - Quota exceeded: a call executed more instructions than allowed
//   - Depth exceeded: calls nested deeper than allowed
//   - Type mismatch: a value crossing a call boundary has the wrong type
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Function is the function executing when the error occurred.
	Function string

	// Symbol is the call target involved, if any.
	Symbol string

	// Err is the underlying cause, e.g. the resolver's link error.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnresolvedSymbol indicates an external symbol could not be resolved.
	ErrCodeUnresolvedSymbol RuntimeErrorCode = "UNRESOLVED_SYMBOL"

	// ErrCodeDivideByZero indicates integer division or remainder by zero.
	ErrCodeDivideByZero RuntimeErrorCode = "DIVIDE_BY_ZERO"

	// ErrCodeQuotaExceeded indicates a call exceeded max steps.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeDepthExceeded indicates calls nested beyond max depth.
	ErrCodeDepthExceeded RuntimeErrorCode = "DEPTH_EXCEEDED"

	// ErrCodeTypeMismatch indicates a value of the wrong type at a call boundary.
	ErrCodeTypeMismatch RuntimeErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnknownFunction indicates Call named a function the module lacks.
	ErrCodeUnknownFunction RuntimeErrorCode = "UNKNOWN_FUNCTION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Function != "" {
		msg += fmt.Sprintf(" (in @%s)", e.Function)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsUnresolvedError returns true if err reports an unresolved external symbol.
func IsUnresolvedError(err error) bool {
	return hasCode(err, ErrCodeUnresolvedSymbol)
}

// IsDivideByZero returns true if err reports an integer division by zero.
func IsDivideByZero(err error) bool {
	return hasCode(err, ErrCodeDivideByZero)
}

// IsDepthError returns true if err reports calls nested beyond the limit.
func IsDepthError(err error) bool {
	return hasCode(err, ErrCodeDepthExceeded)
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and StepsExceededError.
func IsQuotaError(err error) bool {
	if hasCode(err, ErrCodeQuotaExceeded) {
		return true
	}
	var se *StepsExceededError
	return errors.As(err, &se)
}

// NewQuotaError creates a RuntimeError for quota exceeded.
func NewQuotaError(function string, cause *StepsExceededError) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeQuotaExceeded,
		Message:  fmt.Sprintf("call exceeded max steps (%d > %d)", cause.Steps, cause.Limit),
		Function: function,
		Err:      cause,
	}
}
