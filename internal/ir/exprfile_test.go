package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExprSpecBuildFromYAML(t *testing.T) {
	src := `
op: "+"
lhs: {literal: 1.5}
rhs:
  op: plus
  lhs: {literal: 2.0}
  rhs: {literal: 3, type: double}
`
	var spec ExprSpec
	require.NoError(t, yaml.Unmarshal([]byte(src), &spec))

	e, err := spec.Build()
	require.NoError(t, err)

	root, ok := e.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, Plus, root.Op)
	assert.Equal(t, TypeNull, root.Type)
	assert.Equal(t, 1.5, root.Lhs.(*Literal).Value.Double())

	inner := root.Rhs.(*BinaryOp)
	assert.Equal(t, TypeDouble, inner.Lhs.Declared())
	assert.Equal(t, 3.0, inner.Rhs.(*Literal).Value.Double())
}

func TestExprSpecBuildCall(t *testing.T) {
	src := `
call: max
type: int64
args:
  - {literal: 4}
  - {literal: 9, id: 2}
`
	var spec ExprSpec
	require.NoError(t, yaml.Unmarshal([]byte(src), &spec))
	e, err := spec.Build()
	require.NoError(t, err)

	call := e.(*FunctionCall)
	assert.Equal(t, "max", call.Name)
	assert.Equal(t, TypeInt64, call.Type)
	require.Len(t, call.Args, 2)
	assert.Equal(t, int8(2), call.Args[1].(*Literal).Value.ID)
}

func TestExprSpecZeroArgCall(t *testing.T) {
	spec := &ExprSpec{Call: "pi"}
	e, err := spec.Build()
	require.NoError(t, err)
	assert.Empty(t, e.(*FunctionCall).Args)
}

func TestExprSpecFalseLiteral(t *testing.T) {
	var spec ExprSpec
	require.NoError(t, yaml.Unmarshal([]byte(`{literal: false}`), &spec))
	e, err := spec.Build()
	require.NoError(t, err)
	assert.Equal(t, TypeBoolean, e.Declared())
	assert.False(t, e.(*Literal).Value.Bool())
}

func TestExprSpecErrorsCarryPath(t *testing.T) {
	tests := []struct {
		name string
		spec *ExprSpec
		path string
		msg  string
	}{
		{"empty", &ExprSpec{}, "expr", "exactly one of"},
		{"two kinds", &ExprSpec{Op: "+", Call: "f"}, "expr", "exactly one of"},
		{"bad op", &ExprSpec{Op: "**", Lhs: &ExprSpec{Literal: 1}, Rhs: &ExprSpec{Literal: 1}}, "expr", "unknown operator"},
		{"missing rhs", &ExprSpec{Op: "+", Lhs: &ExprSpec{Literal: 1}}, "expr.rhs", "missing expression"},
		{"bad type", &ExprSpec{Call: "f", Args: []*ExprSpec{{Literal: 1, Type: "float"}}}, "expr.args[0]", "unknown value type"},
		{"bad payload", &ExprSpec{Literal: "x", Type: "int64"}, "expr", "cannot use"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.spec.Build()
			require.Error(t, err)
			var specErr *SpecError
			require.ErrorAs(t, err, &specErr)
			assert.Equal(t, tt.path, specErr.Path)
			assert.Contains(t, specErr.Message, tt.msg)
		})
	}
}
