package lir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scalarjit/internal/ir"
)

func constFunction(t *testing.T, name string, v ir.Value) *Module {
	t.Helper()
	m := NewModule(name)
	b := NewBuilder(m)
	b.Begin(name, v.Type)
	b.Ret(b.Const(v))
	_, err := b.Finish()
	require.NoError(t, err)
	return m
}

func TestLinkAddsAndResolves(t *testing.T) {
	dst := NewModule("dst")
	_, err := dst.Declare("one", ir.TypeInt64)
	require.NoError(t, err)

	stats, err := Link(dst, constFunction(t, "one", ir.NewInt64(1)))
	require.NoError(t, err)
	assert.Equal(t, LinkStats{Resolved: 1}, stats)
	assert.False(t, dst.Function("one").IsDeclaration())

	stats, err = Link(dst, constFunction(t, "two", ir.NewInt64(2)))
	require.NoError(t, err)
	assert.Equal(t, LinkStats{Added: 1}, stats)
	assert.Equal(t, 2, dst.Len())
}

func TestLinkFirstDefinitionWins(t *testing.T) {
	dst := constFunction(t, "k", ir.NewInt64(1))
	stats, err := Link(dst, constFunction(t, "k", ir.NewInt64(2)))
	require.NoError(t, err)
	assert.Equal(t, LinkStats{Kept: 1}, stats)
	assert.Equal(t, int64(1), dst.Function("k").Body[0].Const.Int64())
}

func TestLinkDeclarationDoesNotReplaceDefinition(t *testing.T) {
	dst := constFunction(t, "k", ir.NewInt64(1))
	src := NewModule("src")
	_, err := src.Declare("k", ir.TypeInt64)
	require.NoError(t, err)

	_, err = Link(dst, src)
	require.NoError(t, err)
	assert.False(t, dst.Function("k").IsDeclaration())
}

func TestLinkConflictLeavesDestinationUntouched(t *testing.T) {
	dst := constFunction(t, "k", ir.NewInt64(1))
	src := constFunction(t, "other", ir.NewInt64(3))
	_, err := Link(src, constFunction(t, "k", ir.NewDouble(2)))
	require.NoError(t, err)

	_, err = Link(dst, src)
	require.Error(t, err)
	assert.True(t, IsLinkError(err))
	assert.Equal(t, 1, dst.Len(), "no function from src may be linked on conflict")
}

func TestLinkCopiesFunctions(t *testing.T) {
	dst := NewModule("dst")
	src := constFunction(t, "k", ir.NewInt64(1))
	_, err := Link(dst, src)
	require.NoError(t, err)

	src.Function("k").Body[0].Const = ir.NewInt64(9)
	assert.Equal(t, int64(1), dst.Function("k").Body[0].Const.Int64())
}
