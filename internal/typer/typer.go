// Package typer infers the result type of expression trees against a
// registry of overloads.
//
// TypeOf is pure and reports failure only as ir.TypeNull. Check walks the
// same rules bottom-up and describes the first ill-typed node, which is
// what the code generator reports to users.
package typer

import (
	"fmt"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/registry"
)

// Registry is the lookup side of *registry.Registry.
type Registry interface {
	Lookup(name string, result ir.ValueType, args []ir.ValueType) (*registry.Signature, error)
	LookupByOperator(op ir.Opcode, result ir.ValueType, args []ir.ValueType) (*registry.Signature, error)
}

// TypeOf returns the type of e, or ir.TypeNull if e is ill-typed.
func TypeOf(reg Registry, e ir.Expr) ir.ValueType {
	return New(reg).TypeOf(e)
}

// Check returns a *TypeError for the first ill-typed node of e in
// post-order, or nil when e is well-typed.
func Check(reg Registry, e ir.Expr) error {
	return New(reg).Check(e)
}

// Typer memoizes inferred types per node. Expressions are immutable, so a
// Typer may be reused for any number of trees over the same registry.
// It is not safe for concurrent use.
type Typer struct {
	reg  Registry
	memo map[ir.Expr]ir.ValueType
}

// New returns a Typer over reg.
func New(reg Registry) *Typer {
	return &Typer{reg: reg, memo: make(map[ir.Expr]ir.ValueType)}
}

// TypeOf returns the type of e, or ir.TypeNull if e is ill-typed.
func (t *Typer) TypeOf(e ir.Expr) ir.ValueType {
	if e == nil {
		return ir.TypeNull
	}
	if typ, ok := t.memo[e]; ok {
		return typ
	}
	typ, _ := t.node(e)
	t.memo[e] = typ
	return typ
}

// Check returns a *TypeError for the first ill-typed node of e.
func (t *Typer) Check(e ir.Expr) error {
	if te := t.check(e, "root"); te != nil {
		return te
	}
	return nil
}

func (t *Typer) check(e ir.Expr, path string) *TypeError {
	switch n := e.(type) {
	case *ir.BinaryOp:
		if te := t.check(n.Lhs, path+".lhs"); te != nil {
			return te
		}
		if te := t.check(n.Rhs, path+".rhs"); te != nil {
			return te
		}
	case *ir.FunctionCall:
		for i, arg := range n.Args {
			if te := t.check(arg, fmt.Sprintf("%s.args[%d]", path, i)); te != nil {
				return te
			}
		}
	}
	typ, te := t.node(e)
	t.memo[e] = typ
	if te != nil {
		te.Path = path
		return te
	}
	return nil
}

// node applies the typing rule for e, using TypeOf for its children.
// On failure it also describes why, without a path.
func (t *Typer) node(e ir.Expr) (ir.ValueType, *TypeError) {
	switch n := e.(type) {
	case *ir.Literal:
		if n.Type == ir.TypeNull {
			return ir.TypeNull, &TypeError{Kind: "literal", Message: "literal has no type"}
		}
		return n.Type, nil

	case *ir.BinaryOp:
		args := []ir.ValueType{t.TypeOf(n.Lhs), t.TypeOf(n.Rhs)}
		name := opName(n.Op)
		if !n.Op.Valid() {
			return ir.TypeNull, &TypeError{Kind: "binary_op", Name: name, Args: args, Message: "invalid opcode"}
		}
		sig, err := t.reg.LookupByOperator(n.Op, ir.TypeNull, args)
		if err != nil {
			return ir.TypeNull, &TypeError{Kind: "binary_op", Name: name, Args: args, Message: "no operator overload", Err: err}
		}
		if !ir.TypesEqual(sig.ArgumentTypes, args) {
			return ir.TypeNull, &TypeError{
				Kind:    "binary_op",
				Name:    name,
				Args:    args,
				Message: fmt.Sprintf("overload %s does not accept these operands", sig),
			}
		}
		return sig.ReturnType, nil

	case *ir.FunctionCall:
		return t.call(n)

	default:
		return ir.TypeNull, &TypeError{Kind: ir.Kind(e), Message: "unsupported expression"}
	}
}

// call selects the overload by each argument's declared type, then checks
// the inferred type of every argument against it. The first mismatching
// argument ends the check.
func (t *Typer) call(n *ir.FunctionCall) (ir.ValueType, *TypeError) {
	declared := make([]ir.ValueType, len(n.Args))
	for i, arg := range n.Args {
		if arg == nil {
			declared[i] = ir.TypeNull
			continue
		}
		declared[i] = arg.Declared()
	}
	sig, err := t.reg.Lookup(n.Name, ir.TypeNull, declared)
	if err != nil {
		return ir.TypeNull, &TypeError{
			Kind:    "function_call",
			Name:    n.Name,
			Args:    declared,
			Message: "no overload for declared argument types",
			Err:     err,
		}
	}
	for i, arg := range n.Args {
		if i >= len(sig.ArgumentTypes) {
			return ir.TypeNull, &TypeError{
				Kind:    "function_call",
				Name:    n.Name,
				Args:    declared,
				Message: fmt.Sprintf("overload %s takes %d arguments", sig, len(sig.ArgumentTypes)),
			}
		}
		if got := t.TypeOf(arg); got != sig.ArgumentTypes[i] {
			return ir.TypeNull, &TypeError{
				Kind:    "function_call",
				Name:    n.Name,
				Args:    declared,
				Message: fmt.Sprintf("argument %d is declared %s but has type %s", i, declared[i], got),
			}
		}
	}
	return sig.ReturnType, nil
}

func opName(op ir.Opcode) string {
	if op.Valid() {
		return op.Name()
	}
	return op.String()
}
