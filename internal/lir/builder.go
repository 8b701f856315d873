package lir

import (
	"fmt"

	"github.com/roach88/scalarjit/internal/ir"
)

// Value is a reference to an SSA value inside the function being built.
type Value struct {
	ID   int
	Type ir.ValueType
}

// Builder appends instructions to one function of a module.
//
// Builder methods do not return errors individually. The first problem
// (a conflicting declaration, a second definition of a symbol) is kept
// and reported by Finish; later calls still append so that emitters stay
// linear. Type errors in the emitted code are Verify's job.
type Builder struct {
	m   *Module
	fn  *Function
	err error
}

// NewBuilder returns a builder that emits into m.
func NewBuilder(m *Module) *Builder {
	return &Builder{m: m}
}

// Module returns the module under construction.
func (b *Builder) Module() *Module {
	return b.m
}

// Begin starts a definition of name. A pending declaration of the same
// name is upgraded in place; an existing definition is an error.
func (b *Builder) Begin(name string, ret ir.ValueType, params ...ir.ValueType) *Builder {
	fn := &Function{
		Name:   name,
		Params: append([]ir.ValueType(nil), params...),
		Return: ret,
		Body:   []Instr{},
	}
	if existing := b.m.Function(name); existing != nil {
		switch {
		case !existing.IsDeclaration():
			b.fail(&LinkError{Symbol: name, Message: "function already defined"})
		case !existing.SameType(fn):
			b.fail(&LinkError{
				Symbol:  name,
				Message: fmt.Sprintf("defined as %s, declared as %s", fn.TypeString(), existing.TypeString()),
			})
		default:
			b.m.replace(fn)
		}
	} else {
		b.m.add(fn)
	}
	b.fn = fn
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) emit(in Instr) Value {
	if b.fn == nil {
		b.fail(fmt.Errorf("lir: instruction %s emitted outside a function", in.Op))
		return Value{ID: -1, Type: in.Type}
	}
	id := len(b.fn.Body)
	b.fn.Body = append(b.fn.Body, in)
	return Value{ID: id, Type: in.Type}
}

// Param references the i-th parameter of the current function.
func (b *Builder) Param(i int) Value {
	t := ir.TypeNull
	if b.fn != nil && i >= 0 && i < len(b.fn.Params) {
		t = b.fn.Params[i]
	}
	return b.emit(Instr{Op: OpParam, Type: t, Index: i})
}

// Const materializes a constant of v's type.
func (b *Builder) Const(v ir.Value) Value {
	return b.emit(Instr{Op: OpConst, Type: v.Type, Const: v})
}

// Arith emits add/sub/mul/div/rem; the result has x's type.
func (b *Builder) Arith(op Op, x, y Value) Value {
	return b.emit(Instr{Op: op, Type: x.Type, Args: []int{x.ID, y.ID}})
}

// Compare emits a comparison producing a boolean.
func (b *Builder) Compare(op Op, x, y Value) Value {
	return b.emit(Instr{Op: op, Type: ir.TypeBoolean, Args: []int{x.ID, y.ID}})
}

// And emits a logical conjunction of two booleans.
func (b *Builder) And(x, y Value) Value {
	return b.emit(Instr{Op: OpAnd, Type: ir.TypeBoolean, Args: []int{x.ID, y.ID}})
}

// Or emits a logical disjunction of two booleans.
func (b *Builder) Or(x, y Value) Value {
	return b.emit(Instr{Op: OpOr, Type: ir.TypeBoolean, Args: []int{x.ID, y.ID}})
}

// Not emits a logical negation.
func (b *Builder) Not(x Value) Value {
	return b.emit(Instr{Op: OpNot, Type: ir.TypeBoolean, Args: []int{x.ID}})
}

// Neg emits an arithmetic negation.
func (b *Builder) Neg(x Value) Value {
	return b.emit(Instr{Op: OpNeg, Type: x.Type, Args: []int{x.ID}})
}

// Conv converts a numeric value to t.
func (b *Builder) Conv(t ir.ValueType, x Value) Value {
	return b.emit(Instr{Op: OpConv, Type: t, Args: []int{x.ID}})
}

// Select yields x when cond is true and y otherwise.
func (b *Builder) Select(cond, x, y Value) Value {
	return b.emit(Instr{Op: OpSelect, Type: x.Type, Args: []int{cond.ID, x.ID, y.ID}})
}

// Call emits a call to callee, declaring it in the module when it is not
// present yet. The declaration's parameter types come from the arguments.
func (b *Builder) Call(callee string, ret ir.ValueType, args ...Value) Value {
	params := make([]ir.ValueType, len(args))
	ids := make([]int, len(args))
	for i, a := range args {
		params[i] = a.Type
		ids[i] = a.ID
	}
	if _, err := b.m.Declare(callee, ret, params...); err != nil {
		b.fail(err)
	}
	return b.emit(Instr{Op: OpCall, Type: ret, Args: ids, Callee: callee})
}

// Ret terminates the current function returning v.
func (b *Builder) Ret(v Value) {
	b.emit(Instr{Op: OpRet, Type: v.Type, Args: []int{v.ID}})
}

// Finish returns the function built since the last Begin and the first
// error recorded, if any.
func (b *Builder) Finish() (*Function, error) {
	fn := b.fn
	b.fn = nil
	if b.err != nil {
		return nil, b.err
	}
	if fn == nil {
		return nil, fmt.Errorf("lir: Finish called without Begin")
	}
	return fn, nil
}

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error {
	return b.err
}
