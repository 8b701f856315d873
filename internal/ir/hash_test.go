package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprHashDeterministic(t *testing.T) {
	build := func() Expr {
		return NewBinaryOp(TypeNull, Plus, Int64(1), NewBinaryOp(TypeNull, Plus, Int64(2), Int64(3)))
	}
	h1, err := ExprHash(build())
	require.NoError(t, err)
	h2, err := ExprHash(build())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestExprHashIgnoresSharing(t *testing.T) {
	shared := Int64(2)
	a := NewBinaryOp(TypeNull, Plus, shared, shared)
	b := NewBinaryOp(TypeNull, Plus, Int64(2), Int64(2))
	assert.Equal(t, MustExprHash(a), MustExprHash(b))
}

func TestExprHashDistinguishesStructure(t *testing.T) {
	base := MustExprHash(NewBinaryOp(TypeNull, Plus, Int64(1), Int64(2)))

	assert.NotEqual(t, base, MustExprHash(NewBinaryOp(TypeNull, Minus, Int64(1), Int64(2))))
	assert.NotEqual(t, base, MustExprHash(NewBinaryOp(TypeNull, Plus, Int64(2), Int64(1))))
	assert.NotEqual(t, base, MustExprHash(NewBinaryOp(TypeInt64, Plus, Int64(1), Int64(2))))
	assert.NotEqual(t, base, MustExprHash(NewBinaryOp(TypeNull, Plus, Uint64(1), Int64(2))))
	assert.NotEqual(t,
		MustExprHash(Double(0)),
		MustExprHash(Double(math.Copysign(0, -1))),
		"doubles hash by bit pattern")
}

func TestExprHashRejectsInvalidOpcode(t *testing.T) {
	_, err := ExprHash(NewBinaryOp(TypeNull, Opcode(99), Int64(1), Int64(2)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid opcode")
}

func TestSignatureIDStable(t *testing.T) {
	a := SignatureID("+", "add.int64", []ValueType{TypeInt64, TypeInt64}, TypeInt64)
	b := SignatureID("+", "add.int64", []ValueType{TypeInt64, TypeInt64}, TypeInt64)
	c := SignatureID("+", "add.double", []ValueType{TypeDouble, TypeDouble}, TypeDouble)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCompilationKey(t *testing.T) {
	expr := MustExprHash(NewBinaryOp(TypeNull, Plus, Int64(1), Int64(2)))
	add := SignatureID("+", "add.int64", []ValueType{TypeInt64, TypeInt64}, TypeInt64)
	mul := SignatureID("*", "mul.int64", []ValueType{TypeInt64, TypeInt64}, TypeInt64)

	base := CompilationKey(expr, TypeInt64, []string{add, mul})
	assert.Equal(t, base, CompilationKey(expr, TypeInt64, []string{mul, add, mul}), "order and repeats are ignored")
	assert.NotEqual(t, base, CompilationKey(expr, TypeInt64, []string{add}))
	assert.NotEqual(t, base, CompilationKey(expr, TypeDouble, []string{add, mul}))
	assert.NotEqual(t, base, CompilationKey("other", TypeInt64, []string{add, mul}))
}

func TestMarshalCanonicalSortsKeysAndSkipsHTMLEscape(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{"b": int64(1), "a": "<&>"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<&>","b":1}`, string(out))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9.
	out, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(out))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	out, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(out))

	// A literal backslash followed by "u2028" stays escaped.
	out, err = MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(out))
}

func TestMarshalCanonicalRejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)
	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}
