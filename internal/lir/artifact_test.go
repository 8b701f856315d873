package lir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scalarjit/internal/ir"
)

func TestArtifactRoundTrip(t *testing.T) {
	m := NewModule("udf")
	m.ID = "compile-1"
	b := NewBuilder(m)
	b.Begin("scale", ir.TypeDouble, ir.TypeDouble)
	x := b.Param(0)
	b.Ret(b.Arith(OpMul, x, b.Const(ir.NewDouble(0.1))))
	_, err := b.Finish()
	require.NoError(t, err)
	_, err = m.Declare("helper", ir.TypeBoolean)
	require.NoError(t, err)

	data, err := EncodeArtifact(m)
	require.NoError(t, err)

	out, err := DecodeArtifact(data)
	require.NoError(t, err)
	assert.Equal(t, Format(m), Format(out))
	assert.Equal(t, "compile-1", out.ID)
	assert.True(t, out.Function("helper").IsDeclaration())
	assert.True(t, out.Function("scale").Body[1].Const.Equal(ir.NewDouble(0.1)))
}

func TestDecodeArtifactRejectsGarbage(t *testing.T) {
	_, err := DecodeArtifact([]byte("not zstd"))
	assert.Error(t, err)
}

func TestUnmarshalRejectsUnknownOp(t *testing.T) {
	_, err := Unmarshal([]byte(`{"version":1,"name":"m","functions":[{"name":"f","params":[],"return":"int64","body":[{"op":"jump","type":"int64"}]}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown op "jump"`)
}

func TestFormatListing(t *testing.T) {
	m := NewModule("expr")
	b := NewBuilder(m)
	b.Begin(EntryName, ir.TypeBoolean)
	x := b.Const(ir.NewInt64(2))
	y := b.Const(ir.NewInt64(3))
	b.Ret(b.Call("lt.int64", ir.TypeBoolean, x, y))
	_, err := b.Finish()
	require.NoError(t, err)

	want := `; module expr

define boolean @expr() {
  %0 = const int64 2
  %1 = const int64 3
  %2 = call boolean @lt.int64(%0, %1)
  ret boolean %2
}

declare boolean @lt.int64(int64, int64)
`
	assert.Equal(t, want, Format(m))
}
