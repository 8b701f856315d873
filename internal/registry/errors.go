package registry

import (
	"errors"
	"fmt"

	"github.com/roach88/scalarjit/internal/ir"
)

// ErrFrozen is returned by Register after Freeze.
var ErrFrozen = errors.New("registry: frozen")

// LookupErrorCode categorizes lookup failures.
type LookupErrorCode string

const (
	// ErrCodeNotFound indicates no overload is registered under the name.
	ErrCodeNotFound LookupErrorCode = "LOOKUP_NOT_FOUND"

	// ErrCodeNoMatch indicates the name exists but no overload matches.
	ErrCodeNoMatch LookupErrorCode = "LOOKUP_NO_MATCH"
)

// LookupError reports a failed Lookup. Result and Args echo the request;
// Args is nil for an argument wildcard.
type LookupError struct {
	Code   LookupErrorCode
	Name   string
	Result ir.ValueType
	Args   []ir.ValueType
}

func (e *LookupError) Error() string {
	want := "(*)"
	if e.Args != nil {
		want = ir.FormatTypes(e.Args)
	}
	if e.Result != ir.TypeNull {
		want += " " + e.Result.String()
	}
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s: no function named %q", e.Code, e.Name)
	default:
		return fmt.Sprintf("%s: no overload %s%s", e.Code, e.Name, want)
	}
}

// IsLookupError returns true if err is or wraps a *LookupError.
func IsLookupError(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}

// IsNotFound returns true if err is a lookup of an unregistered name.
func IsNotFound(err error) bool {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Code == ErrCodeNotFound
	}
	return false
}

// RegistrationError reports a signature that cannot be registered.
type RegistrationError struct {
	Name    string
	Message string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %q: %s", e.Name, e.Message)
}
