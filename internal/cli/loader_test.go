package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scalarjit/internal/ir"
)

var (
	exprsDir    = filepath.Join("testdata", "exprs")
	catalogFile = filepath.Join("testdata", "catalog", "udfs.cue")
)

func exprFile(name string) string {
	return filepath.Join(exprsDir, name)
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestLoadExprFile(t *testing.T) {
	e, err := LoadExprFile(exprFile("nested_add.yaml"))
	require.NoError(t, err)

	op, ok := e.(*ir.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ir.Plus, op.Op)
	assert.IsType(t, &ir.BinaryOp{}, op.Rhs)
}

func TestLoadExprFile_JSON(t *testing.T) {
	e, err := LoadExprFile(exprFile("divide.json"))
	require.NoError(t, err)

	op, ok := e.(*ir.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ir.Divide, op.Op)
}

func TestLoadExprFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing", exprFile("nope.yaml"), ErrCodeNotFound},
		{"unknown_field", exprFile("unknown_field.yaml"), ErrCodeBadInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadExprFile(tt.path)
			require.Error(t, err)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.code, le.Code)
		})
	}
}

func TestParseExpr_Malformed(t *testing.T) {
	_, err := ParseExpr([]byte("op: \"+\"\nlhs: {literal: 1}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expr.rhs")
}

func TestNewSession(t *testing.T) {
	sess, err := newSession(catalogFile)
	require.NoError(t, err)
	assert.True(t, sess.reg.Frozen())
	assert.NotEmpty(t, sess.reg.Overloads("twice"))

	_, err = newSession(filepath.Join("testdata", "catalog", "missing.cue"))
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeCatalog, le.Code)
}
