package codegen

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies compile failures.
type Kind string

const (
	// KindType: the tree is ill-typed. Err is a *typer.TypeError.
	KindType Kind = "type"

	// KindLookup: no overload matched a node. Err is a *registry.LookupError.
	KindLookup Kind = "lookup"

	// KindCodegen: lowering produced an invalid module, an emitter failed
	// or two bodies could not be linked. Always a defect.
	KindCodegen Kind = "codegen"
)

// Error is returned by Compile. No partial module accompanies it.
type Error struct {
	Kind Kind

	// Path locates the offending node ("root.lhs.args[0]"), when known.
	Path string

	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindType && e.Err != nil {
		// The type error carries its own node path.
		return "compile: " + e.Err.Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "compile: %s error", e.Kind)
	if e.Path != "" {
		fmt.Fprintf(&sb, " at %s", e.Path)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func isKind(err error, k Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == k
	}
	return false
}

// IsTypeError returns true if err is a compile failure caused by an ill-typed tree.
func IsTypeError(err error) bool { return isKind(err, KindType) }

// IsLookupError returns true if err is a compile failure caused by a missing overload.
func IsLookupError(err error) bool { return isKind(err, KindLookup) }

// IsCodegenError returns true if err is an internal lowering failure.
func IsCodegenError(err error) bool { return isKind(err, KindCodegen) }
