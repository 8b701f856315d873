package typer

import (
	"errors"
	"fmt"

	"github.com/roach88/scalarjit/internal/ir"
)

// TypeError describes the first ill-typed node of a tree.
type TypeError struct {
	// Path locates the node from the root, e.g. "root.rhs.args[0]".
	Path string

	// Kind is the node variant: literal, binary_op or function_call.
	Kind string

	// Name is the operator or function name, if any.
	Name string

	// Args are the operand types the lookup was keyed on.
	Args []ir.ValueType

	Message string

	// Err is the underlying lookup failure, if any.
	Err error
}

func (e *TypeError) Error() string {
	node := e.Kind
	if e.Name != "" {
		node = fmt.Sprintf("%s %s%s", e.Kind, e.Name, ir.FormatTypes(e.Args))
	}
	return fmt.Sprintf("type error at %s: %s: %s", e.Path, node, e.Message)
}

func (e *TypeError) Unwrap() error {
	return e.Err
}

// IsTypeError returns true if err is or wraps a *TypeError.
func IsTypeError(err error) bool {
	var te *TypeError
	return errors.As(err, &te)
}
