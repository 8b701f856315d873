package codegen

import (
	"strconv"
	"strings"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/registry"
	"github.com/roach88/scalarjit/internal/typer"
)

// ParamPrefix starts a parameter reference in CompileFunction bodies.
const ParamPrefix = "$"

// ParamRef returns the expression reading parameter i of type t.
func ParamRef(t ir.ValueType, i int) *ir.FunctionCall {
	return ir.NewFunctionCall(t, ParamPrefix+strconv.Itoa(i))
}

// paramIndex parses "$i" with 0 <= i < n.
func paramIndex(name string, n int) (int, bool) {
	digits, ok := strings.CutPrefix(name, ParamPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	i, err := strconv.Atoi(digits)
	if err != nil || i < 0 || i >= n || strconv.Itoa(i) != digits {
		return 0, false
	}
	return i, true
}

// paramRegistry types parameter references as zero-arity functions
// returning the parameter type. Everything else goes to the wrapped
// registry.
type paramRegistry struct {
	typer.Registry
	params []ir.ValueType
}

func (r paramRegistry) Lookup(name string, result ir.ValueType, args []ir.ValueType) (*registry.Signature, error) {
	i, ok := paramIndex(name, len(r.params))
	if !ok {
		return r.Registry.Lookup(name, result, args)
	}
	sig := &registry.Signature{Name: name, ArgumentTypes: []ir.ValueType{}, ReturnType: r.params[i]}
	if !sig.Matches(result, args) {
		return nil, &registry.LookupError{Code: registry.ErrCodeNoMatch, Name: name, Result: result, Args: args}
	}
	return sig, nil
}
