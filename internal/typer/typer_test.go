package typer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
	"github.com/roach88/scalarjit/internal/registry"
)

var (
	i64 = ir.TypeInt64
	u64 = ir.TypeUint64
	f64 = ir.TypeDouble
)

func emit(sig *registry.Signature) (*lir.Module, error) {
	m := lir.NewModule(sig.Symbol())
	_, err := m.Declare(sig.Symbol(), sig.ReturnType, sig.ArgumentTypes...)
	return m, err
}

func newRegistry(t *testing.T, sigs ...*registry.Signature) *registry.Registry {
	t.Helper()
	r := registry.New()
	for _, s := range sigs {
		s.Emitter = emit
		require.NoError(t, r.Register(s))
	}
	return r
}

func op(op ir.Opcode, ret ir.ValueType, link string, args ...ir.ValueType) *registry.Signature {
	return &registry.Signature{Name: op.Name(), ArgumentTypes: args, ReturnType: ret, Link: link}
}

func fn(name string, ret ir.ValueType, args ...ir.ValueType) *registry.Signature {
	if args == nil {
		args = []ir.ValueType{}
	}
	return &registry.Signature{Name: name, ArgumentTypes: args, ReturnType: ret}
}

func TestTypeOfLiteral(t *testing.T) {
	r := registry.New()
	for _, typ := range []ir.ValueType{ir.TypeNull, i64, u64, f64, ir.TypeBoolean, ir.TypeString, ir.TypeAny} {
		lit := ir.NewTypedLiteral(typ, ir.NewInt64(0))
		assert.Equal(t, typ, TypeOf(r, lit), typ.String())
	}
}

func TestTypeOfBinaryOp(t *testing.T) {
	sum := ir.NewBinaryOp(ir.TypeNull, ir.Plus, ir.Int64(1), ir.Int64(2))

	with := newRegistry(t, op(ir.Plus, i64, "add.int64", i64, i64))
	assert.Equal(t, i64, TypeOf(with, sum))

	without := registry.New()
	assert.Equal(t, ir.TypeNull, TypeOf(without, sum))

	doubleOnly := newRegistry(t, op(ir.Plus, f64, "add.double", f64, f64))
	assert.Equal(t, ir.TypeNull, TypeOf(doubleOnly, sum), "no coercion from int64 to double")
}

func TestTypeOfBinaryOpIgnoresDeclaredType(t *testing.T) {
	r := newRegistry(t, op(ir.Less, ir.TypeBoolean, "lt.int64", i64, i64))
	lt := ir.NewBinaryOp(i64, ir.Less, ir.Int64(1), ir.Int64(2))
	assert.Equal(t, ir.TypeBoolean, TypeOf(r, lt))
}

func TestTypeOfNested(t *testing.T) {
	r := newRegistry(t,
		op(ir.Plus, i64, "add.int64", i64, i64),
		op(ir.Multiply, i64, "mul.int64", i64, i64),
		op(ir.Less, ir.TypeBoolean, "lt.int64", i64, i64),
	)
	e := ir.NewBinaryOp(ir.TypeNull, ir.Less,
		ir.NewBinaryOp(ir.TypeNull, ir.Multiply, ir.Int64(2), ir.Int64(4)),
		ir.NewBinaryOp(ir.TypeNull, ir.Plus, ir.Int64(1), ir.Int64(3)))
	assert.Equal(t, ir.TypeBoolean, TypeOf(r, e))

	bad := ir.NewBinaryOp(ir.TypeNull, ir.Plus, e, ir.Int64(1))
	assert.Equal(t, ir.TypeNull, TypeOf(r, bad))
}

func TestTypeOfZeroArgCall(t *testing.T) {
	r := newRegistry(t, fn("pi", f64))
	assert.Equal(t, f64, TypeOf(r, ir.NewFunctionCall(ir.TypeNull, "pi")))
	assert.Equal(t, ir.TypeNull, TypeOf(r, ir.NewFunctionCall(ir.TypeNull, "tau")))
}

// Phase one: the overload is chosen by the declared type of each argument.
func TestTypeOfCallSelectsByDeclaredType(t *testing.T) {
	r := newRegistry(t,
		op(ir.Plus, i64, "add.int64", i64, i64),
		fn("abs", i64, i64),
	)
	sum := ir.NewBinaryOp(ir.TypeNull, ir.Plus, ir.Int64(1), ir.Int64(2))

	// The argument infers int64, but it declares nothing, so selection fails.
	undeclared := ir.NewFunctionCall(ir.TypeNull, "abs", sum)
	assert.Equal(t, ir.TypeNull, TypeOf(r, undeclared))

	declared := ir.NewFunctionCall(ir.TypeNull, "abs",
		ir.NewBinaryOp(i64, ir.Plus, ir.Int64(1), ir.Int64(2)))
	assert.Equal(t, i64, TypeOf(r, declared))
}

// Phase two: the selected overload is verified against inferred types.
func TestTypeOfCallVerifiesInferredType(t *testing.T) {
	r := newRegistry(t,
		op(ir.Plus, f64, "add.double", f64, f64),
		fn("abs", i64, i64),
	)
	// Declared int64, so abs(int64) is selected, but the operand infers double.
	lying := ir.NewBinaryOp(i64, ir.Plus, ir.Double(1), ir.Double(2))
	call := ir.NewFunctionCall(ir.TypeNull, "abs", lying)
	assert.Equal(t, ir.TypeNull, TypeOf(r, call))

	err := Check(r, call)
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "root", te.Path)
	assert.Contains(t, te.Message, "argument 0 is declared int64 but has type double")
}

func TestTypeOfCallRejectsIllTypedArgument(t *testing.T) {
	r := newRegistry(t, fn("max", i64, i64, i64))
	first := ir.NewTypedLiteral(i64, ir.NewDouble(1)) // declared int64, well-typed as int64
	second := ir.NewBinaryOp(i64, ir.Plus, ir.Int64(1), ir.Int64(2))
	// No + overload: the second argument is ill-typed.
	assert.Equal(t, ir.TypeNull, TypeOf(r, ir.NewFunctionCall(ir.TypeNull, "max", first, second)))
}

func TestCheckReportsDeepestNode(t *testing.T) {
	r := newRegistry(t, op(ir.Plus, i64, "add.int64", i64, i64))
	e := ir.NewBinaryOp(ir.TypeNull, ir.Plus,
		ir.Int64(1),
		ir.NewBinaryOp(ir.TypeNull, ir.Plus, ir.Double(2), ir.Int64(3)))

	err := Check(r, e)
	require.Error(t, err)
	assert.True(t, IsTypeError(err))
	assert.True(t, registry.IsLookupError(err))

	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "root.rhs", te.Path)
	assert.Equal(t, "binary_op", te.Kind)
	assert.Equal(t, []ir.ValueType{f64, i64}, te.Args)
	assert.Equal(t, "type error at root.rhs: binary_op +(double, int64): no operator overload", te.Error())
}

func TestCheckCallArgumentPath(t *testing.T) {
	r := newRegistry(t, fn("f", i64, i64, i64))
	call := ir.NewFunctionCall(ir.TypeNull, "f", ir.Int64(1), ir.NewTypedLiteral(ir.TypeNull, ir.NewInt64(2)))

	var te *TypeError
	require.ErrorAs(t, Check(r, call), &te)
	assert.Equal(t, "root.args[1]", te.Path)
	assert.Equal(t, "literal has no type", te.Message)
}

func TestCheckWellTyped(t *testing.T) {
	r := newRegistry(t, op(ir.Plus, i64, "add.int64", i64, i64))
	assert.NoError(t, Check(r, ir.NewBinaryOp(ir.TypeNull, ir.Plus, ir.Int64(1), ir.Int64(2))))
}

func TestTypeOfSharedSubtree(t *testing.T) {
	r := newRegistry(t, op(ir.Plus, i64, "add.int64", i64, i64))
	leaf := ir.NewBinaryOp(ir.TypeNull, ir.Plus, ir.Int64(1), ir.Int64(1))
	e := leaf
	for range 40 {
		e = ir.NewBinaryOp(ir.TypeNull, ir.Plus, e, e)
	}
	assert.Equal(t, i64, TypeOf(r, e))
}
