package lir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scalarjit/internal/ir"
)

// buildAdd emits @add.int64(int64, int64) into m.
func buildAdd(t *testing.T, m *Module) *Function {
	t.Helper()
	b := NewBuilder(m)
	b.Begin("add.int64", ir.TypeInt64, ir.TypeInt64, ir.TypeInt64)
	b.Ret(b.Arith(OpAdd, b.Param(0), b.Param(1)))
	f, err := b.Finish()
	require.NoError(t, err)
	return f
}

func TestBuilderEmitsSSA(t *testing.T) {
	m := NewModule("test")
	f := buildAdd(t, m)

	require.Len(t, f.Body, 4)
	assert.Equal(t, OpParam, f.Body[0].Op)
	assert.Equal(t, OpAdd, f.Body[2].Op)
	assert.Equal(t, []int{0, 1}, f.Body[2].Args)
	assert.Equal(t, OpRet, f.Body[3].Op)
	assert.NoError(t, Verify(f, m))
}

func TestBuilderCallDeclaresCallee(t *testing.T) {
	m := NewModule("test")
	b := NewBuilder(m)
	b.Begin(EntryName, ir.TypeInt64)
	one := b.Const(ir.NewInt64(1))
	b.Ret(b.Call("add.int64", ir.TypeInt64, one, one))
	_, err := b.Finish()
	require.NoError(t, err)

	decl := m.Function("add.int64")
	require.NotNil(t, decl)
	assert.True(t, decl.IsDeclaration())
	assert.Equal(t, []ir.ValueType{ir.TypeInt64, ir.TypeInt64}, decl.Params)
	assert.Equal(t, []string{"add.int64"}, m.Declarations())
	assert.NoError(t, VerifyModule(m))
}

func TestBuilderUpgradesDeclaration(t *testing.T) {
	m := NewModule("test")
	_, err := m.Declare("add.int64", ir.TypeInt64, ir.TypeInt64, ir.TypeInt64)
	require.NoError(t, err)

	buildAdd(t, m)
	assert.False(t, m.Function("add.int64").IsDeclaration())
	assert.Equal(t, 1, m.Len())
}

func TestBuilderRejectsRedefinition(t *testing.T) {
	m := NewModule("test")
	buildAdd(t, m)

	b := NewBuilder(m)
	b.Begin("add.int64", ir.TypeInt64, ir.TypeInt64, ir.TypeInt64)
	b.Ret(b.Param(0))
	_, err := b.Finish()
	require.Error(t, err)
	assert.True(t, IsLinkError(err))
	assert.Contains(t, err.Error(), "already defined")
}

func TestBuilderRejectsConflictingCall(t *testing.T) {
	m := NewModule("test")
	b := NewBuilder(m)
	b.Begin(EntryName, ir.TypeDouble)
	x := b.Const(ir.NewDouble(1))
	b.Call("f", ir.TypeDouble, x)
	y := b.Call("f", ir.TypeDouble, x, x)
	b.Ret(y)
	_, err := b.Finish()
	require.Error(t, err)
	assert.True(t, IsLinkError(err))
}

func TestBuilderFinishWithoutBegin(t *testing.T) {
	b := NewBuilder(NewModule("test"))
	b.Const(ir.NewInt64(1))
	_, err := b.Finish()
	assert.Error(t, err)
}

func TestVerifyRejectsMalformedBodies(t *testing.T) {
	i64 := ir.TypeInt64
	tests := []struct {
		name string
		fn   *Function
		msg  string
	}{
		{
			name: "empty body",
			fn:   &Function{Name: "f", Return: i64, Body: []Instr{}},
			msg:  "empty body",
		},
		{
			name: "missing ret",
			fn:   &Function{Name: "f", Return: i64, Body: []Instr{{Op: OpConst, Type: i64, Const: ir.NewInt64(1)}}},
			msg:  "does not end in ret",
		},
		{
			name: "forward reference",
			fn: &Function{Name: "f", Return: i64, Body: []Instr{
				{Op: OpAdd, Type: i64, Args: []int{1, 1}},
				{Op: OpConst, Type: i64, Const: ir.NewInt64(1)},
				{Op: OpRet, Type: i64, Args: []int{0}},
			}},
			msg: "not defined before use",
		},
		{
			name: "wrong return type",
			fn: &Function{Name: "f", Return: i64, Body: []Instr{
				{Op: OpConst, Type: ir.TypeDouble, Const: ir.NewDouble(1)},
				{Op: OpRet, Type: ir.TypeDouble, Args: []int{0}},
			}},
			msg: "ret of double",
		},
		{
			name: "mixed operands",
			fn: &Function{Name: "f", Return: i64, Body: []Instr{
				{Op: OpConst, Type: i64, Const: ir.NewInt64(1)},
				{Op: OpConst, Type: ir.TypeDouble, Const: ir.NewDouble(1)},
				{Op: OpAdd, Type: i64, Args: []int{0, 1}},
				{Op: OpRet, Type: i64, Args: []int{2}},
			}},
			msg: "operand 1 has type double",
		},
		{
			name: "rem on double",
			fn: &Function{Name: "f", Return: ir.TypeDouble, Body: []Instr{
				{Op: OpConst, Type: ir.TypeDouble, Const: ir.NewDouble(1)},
				{Op: OpRem, Type: ir.TypeDouble, Args: []int{0, 0}},
				{Op: OpRet, Type: ir.TypeDouble, Args: []int{1}},
			}},
			msg: "rem on non-integral",
		},
		{
			name: "string constant",
			fn: &Function{Name: "f", Return: ir.TypeString, Body: []Instr{
				{Op: OpConst, Type: ir.TypeString, Const: ir.NewString("x")},
				{Op: OpRet, Type: ir.TypeString, Args: []int{0}},
			}},
			msg: "invalid return type string",
		},
		{
			name: "param out of range",
			fn: &Function{Name: "f", Return: i64, Body: []Instr{
				{Op: OpParam, Type: i64, Index: 0},
				{Op: OpRet, Type: i64, Args: []int{0}},
			}},
			msg: "param 0 out of range",
		},
		{
			name: "ordering on booleans",
			fn: &Function{Name: "f", Return: ir.TypeBoolean, Body: []Instr{
				{Op: OpConst, Type: ir.TypeBoolean, Const: ir.NewBool(true)},
				{Op: OpLt, Type: ir.TypeBoolean, Args: []int{0, 0}},
				{Op: OpRet, Type: ir.TypeBoolean, Args: []int{1}},
			}},
			msg: "lt is not defined on boolean",
		},
		{
			name: "early ret",
			fn: &Function{Name: "f", Return: i64, Body: []Instr{
				{Op: OpConst, Type: i64, Const: ir.NewInt64(1)},
				{Op: OpRet, Type: i64, Args: []int{0}},
				{Op: OpRet, Type: i64, Args: []int{0}},
			}},
			msg: "ret before end",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.fn, nil)
			require.Error(t, err)
			assert.True(t, IsVerifyError(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestVerifyCallAgainstModule(t *testing.T) {
	m := NewModule("test")
	b := NewBuilder(m)
	b.Begin(EntryName, ir.TypeInt64)
	b.Ret(b.Call("g", ir.TypeInt64))
	_, err := b.Finish()
	require.NoError(t, err)

	// Tamper with the declaration so the call no longer matches.
	m.Function("g").Return = ir.TypeDouble
	err = VerifyModule(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared to return double")
}

func TestDeclarationsAlwaysVerify(t *testing.T) {
	assert.NoError(t, Verify(&Function{Name: "udf", Return: ir.TypeInt64}, nil))
}
