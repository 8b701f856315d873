package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scalarjit/internal/builtins"
	"github.com/roach88/scalarjit/internal/codegen"
	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/registry"
)

var _ codegen.IDGenerator = (*FixedIDGenerator)(nil)

func TestFixedIDGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedIDGenerator("module-123")

	assert.Equal(t, "module-123", gen.Generate())
	assert.Equal(t, "module-123", gen.Generate())
}

func TestFixedIDGenerator_EmptyIDDefault(t *testing.T) {
	assert.Equal(t, "test-module-default", NewFixedIDGenerator("").Generate())
}

func TestFixedIDGenerator_StampsModules(t *testing.T) {
	reg := registry.New()
	require.NoError(t, builtins.Register(reg))
	g := codegen.New(reg, codegen.WithIDGenerator(NewFixedIDGenerator("fixed")))

	e := ir.NewBinaryOp(ir.TypeNull, ir.Plus, ir.Int64(1), ir.Int64(2))
	first, err := g.Compile(e)
	require.NoError(t, err)
	second, err := g.Compile(e)
	require.NoError(t, err)

	assert.Equal(t, "fixed", first.ID)
	assert.Equal(t, first.ID, second.ID)
}

func TestFixedIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedIDGenerator("thread-safe-id")

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				assert.Equal(t, "thread-safe-id", gen.Generate())
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
