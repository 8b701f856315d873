// Package builtins registers the standard operator and function overloads.
//
// Every body is a one-function LIR module named after the overload's link
// symbol, "<op>.<type>" for operators (add.int64) and "<name>.<type>" for
// named functions (abs.double).
package builtins

import (
	"fmt"
	"math"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
	"github.com/roach88/scalarjit/internal/registry"
)

var (
	i64     = ir.TypeInt64
	u64     = ir.TypeUint64
	f64     = ir.TypeDouble
	boolean = ir.TypeBoolean
)

type operator struct {
	op    ir.Opcode
	lop   lir.Op
	types []ir.ValueType
}

// Registration order matters only where overloads share argument types,
// which none of these do.
var arithmetic = []operator{
	{ir.Plus, lir.OpAdd, []ir.ValueType{i64, u64, f64}},
	{ir.Minus, lir.OpSub, []ir.ValueType{i64, u64, f64}},
	{ir.Multiply, lir.OpMul, []ir.ValueType{i64, u64, f64}},
	{ir.Divide, lir.OpDiv, []ir.ValueType{i64, u64, f64}},
	{ir.Modulo, lir.OpRem, []ir.ValueType{i64, u64}},
}

var logical = []operator{
	{ir.And, lir.OpAnd, []ir.ValueType{boolean}},
	{ir.Or, lir.OpOr, []ir.ValueType{boolean}},
}

var comparisons = []operator{
	{ir.Equal, lir.OpEq, []ir.ValueType{i64, u64, f64, boolean}},
	{ir.NotEqual, lir.OpNe, []ir.ValueType{i64, u64, f64, boolean}},
	{ir.Less, lir.OpLt, []ir.ValueType{i64, u64, f64}},
	{ir.LessOrEqual, lir.OpLe, []ir.ValueType{i64, u64, f64}},
	{ir.Greater, lir.OpGt, []ir.ValueType{i64, u64, f64}},
	{ir.GreaterOrEqual, lir.OpGe, []ir.ValueType{i64, u64, f64}},
}

type function struct {
	name string
	args []ir.ValueType
	ret  ir.ValueType
	body func(b *lir.Builder)
}

var functions = []function{
	{"abs", []ir.ValueType{i64}, i64, absBody(ir.NewInt64(0))},
	{"abs", []ir.ValueType{f64}, f64, absBody(ir.NewDouble(0))},
	{"neg", []ir.ValueType{i64}, i64, func(b *lir.Builder) { b.Ret(b.Neg(b.Param(0))) }},
	{"neg", []ir.ValueType{f64}, f64, func(b *lir.Builder) { b.Ret(b.Neg(b.Param(0))) }},
	{"not", []ir.ValueType{boolean}, boolean, func(b *lir.Builder) { b.Ret(b.Not(b.Param(0))) }},
	{"double", []ir.ValueType{i64}, f64, convBody(f64)},
	{"double", []ir.ValueType{u64}, f64, convBody(f64)},
	{"int64", []ir.ValueType{f64}, i64, convBody(i64)},
	{"pi", []ir.ValueType{}, f64, func(b *lir.Builder) { b.Ret(b.Const(ir.NewDouble(math.Pi))) }},
	{"min", []ir.ValueType{i64, i64}, i64, pickBody(lir.OpLt)},
	{"min", []ir.ValueType{f64, f64}, f64, pickBody(lir.OpLt)},
	{"max", []ir.ValueType{i64, i64}, i64, pickBody(lir.OpGt)},
	{"max", []ir.ValueType{f64, f64}, f64, pickBody(lir.OpGt)},
}

// Register installs every builtin overload into reg.
func Register(reg *registry.Registry) error {
	for _, group := range [][]operator{arithmetic, logical} {
		for _, o := range group {
			for _, t := range o.types {
				if err := registerOperator(reg, o, t, t); err != nil {
					return err
				}
			}
		}
	}
	for _, o := range comparisons {
		for _, t := range o.types {
			if err := registerOperator(reg, o, t, boolean); err != nil {
				return err
			}
		}
	}
	for _, f := range functions {
		sig := &registry.Signature{
			Name:          f.name,
			ArgumentTypes: f.args,
			ReturnType:    f.ret,
			Emitter:       FunctionEmitter(f.body),
			Link:          functionLink(f),
		}
		if err := reg.Register(sig); err != nil {
			return fmt.Errorf("builtins: %w", err)
		}
	}
	return nil
}

func registerOperator(reg *registry.Registry, o operator, t, ret ir.ValueType) error {
	link := o.lop.String() + "." + t.String()
	err := reg.RegisterOperator(o.op, []ir.ValueType{t, t}, ret, OperatorEmitter(o.lop), link)
	if err != nil {
		return fmt.Errorf("builtins: %w", err)
	}
	return nil
}

func functionLink(f function) string {
	if len(f.args) == 0 {
		return f.name
	}
	return f.name + "." + f.args[0].String()
}

// OperatorEmitter returns an emitter whose body applies op to the two
// parameters.
func OperatorEmitter(op lir.Op) registry.BodyEmitter {
	return func(sig *registry.Signature) (*lir.Module, error) {
		if len(sig.ArgumentTypes) != 2 {
			return nil, fmt.Errorf("operator %s takes 2 arguments, signature has %d", op, len(sig.ArgumentTypes))
		}
		return FunctionEmitter(func(b *lir.Builder) {
			x, y := b.Param(0), b.Param(1)
			switch {
			case op.IsArith():
				b.Ret(b.Arith(op, x, y))
			case op.IsCompare():
				b.Ret(b.Compare(op, x, y))
			case op == lir.OpAnd:
				b.Ret(b.And(x, y))
			case op == lir.OpOr:
				b.Ret(b.Or(x, y))
			}
		})(sig)
	}
}

// FunctionEmitter wraps a body builder into an emitter. The body is built
// as a definition of sig.Symbol() and verified.
func FunctionEmitter(body func(b *lir.Builder)) registry.BodyEmitter {
	return func(sig *registry.Signature) (*lir.Module, error) {
		m := lir.NewModule(sig.Symbol())
		b := lir.NewBuilder(m)
		b.Begin(sig.Symbol(), sig.ReturnType, sig.ArgumentTypes...)
		body(b)
		f, err := b.Finish()
		if err != nil {
			return nil, err
		}
		if err := lir.Verify(f, m); err != nil {
			return nil, err
		}
		return m, nil
	}
}

func absBody(zero ir.Value) func(b *lir.Builder) {
	return func(b *lir.Builder) {
		x := b.Param(0)
		neg := b.Compare(lir.OpLt, x, b.Const(zero))
		b.Ret(b.Select(neg, b.Neg(x), x))
	}
}

func convBody(to ir.ValueType) func(b *lir.Builder) {
	return func(b *lir.Builder) {
		b.Ret(b.Conv(to, b.Param(0)))
	}
}

func pickBody(cmp lir.Op) func(b *lir.Builder) {
	return func(b *lir.Builder) {
		x, y := b.Param(0), b.Param(1)
		b.Ret(b.Select(b.Compare(cmp, x, y), x, y))
	}
}
