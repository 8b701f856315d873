package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/scalarjit/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrUnknownType       = "E101" // type name is not a ValueType
	ErrStringUnsupported = "E102" // string values cannot be compiled
	ErrNonConcreteType   = "E103" // null or any used as a signature type
	ErrDuplicate         = "E104" // duplicate signature or conflicting link symbol
	ErrBadTimeout        = "E105" // load_timeout is not a positive duration
)

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled catalog. Returns all errors found (does not
// fail-fast).
func Validate(c *Catalog) []ValidationError {
	var errs []ValidationError

	if _, err := c.LoadTimeout(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "resolver.load_timeout",
			Message: fmt.Sprintf("invalid duration %q: %v", c.Resolver.LoadTimeout, err),
			Code:    ErrBadTimeout,
		})
	}

	type linked struct {
		field string
		fn    Function
	}
	signatures := make(map[string]string)
	links := make(map[string]linked)

	for i, fn := range c.Functions {
		field := fmt.Sprintf("function.%s", fn.Name)
		line := fn.Pos.Line()

		for j, arg := range fn.Args {
			if err := checkType(arg, false); err != nil {
				err.Field = fmt.Sprintf("%s.args[%d]", field, j)
				err.Line = line
				errs = append(errs, *err)
			}
		}
		if err := checkType(fn.Returns, true); err != nil {
			err.Field = field + ".returns"
			err.Line = line
			errs = append(errs, *err)
		}

		key := fn.Name + "(" + strings.Join(fn.Args, ", ") + ")"
		if prev, ok := signatures[key]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate signature %s, first declared at %s", key, prev),
				Code:    ErrDuplicate,
				Line:    line,
			})
		} else {
			signatures[key] = fmt.Sprintf("function[%d]", i)
		}

		// One symbol has one body, so its declared type must agree.
		sym := fn.Symbol()
		if prev, ok := links[sym]; ok && !sameType(prev.fn, fn) {
			errs = append(errs, ValidationError{
				Field:   field + ".link",
				Message: fmt.Sprintf("symbol %q already declared by %s with a different type", sym, prev.field),
				Code:    ErrDuplicate,
				Line:    line,
			})
		} else if !ok {
			links[sym] = linked{field: field, fn: fn}
		}
	}

	return errs
}

func checkType(name string, isReturn bool) *ValidationError {
	t, err := ir.ParseValueType(name)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("unknown type %q", name), Code: ErrUnknownType}
	}
	switch t {
	case ir.TypeString:
		return &ValidationError{Message: "string values are not supported", Code: ErrStringUnsupported}
	case ir.TypeNull, ir.TypeAny:
		what := "argument"
		if isReturn {
			what = "return"
		}
		return &ValidationError{Message: fmt.Sprintf("%s type must be concrete, got %s", what, t), Code: ErrNonConcreteType}
	}
	return nil
}

func sameType(a, b Function) bool {
	return a.Returns == b.Returns && slices.Equal(a.Args, b.Args)
}
