package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
	"github.com/roach88/scalarjit/internal/registry"
)

func TestRegister(t *testing.T) {
	reg := registry.New()
	require.NoError(t, Register(reg))

	assert.Equal(t, 49, reg.Len())
	assert.Contains(t, reg.Names(), "pi")

	sig, err := reg.LookupByOperator(ir.Less, ir.TypeNull, []ir.ValueType{ir.TypeDouble, ir.TypeDouble})
	require.NoError(t, err)
	assert.Equal(t, "lt.double", sig.Symbol())
	assert.Equal(t, ir.TypeBoolean, sig.ReturnType)

	_, err = reg.LookupByOperator(ir.Modulo, ir.TypeNull, []ir.ValueType{ir.TypeDouble, ir.TypeDouble})
	assert.True(t, registry.IsLookupError(err), "no % on double")

	_, err = reg.LookupByOperator(ir.Plus, ir.TypeNull, []ir.ValueType{ir.TypeString, ir.TypeString})
	assert.True(t, registry.IsLookupError(err), "no string overloads")
}

func TestEveryBodyVerifies(t *testing.T) {
	reg := registry.New()
	require.NoError(t, Register(reg))

	links := map[string]bool{}
	for _, name := range reg.Names() {
		for _, sig := range reg.Overloads(name) {
			assert.False(t, links[sig.Symbol()], "link %s reused", sig.Symbol())
			links[sig.Symbol()] = true

			m, err := sig.Emitter(sig)
			require.NoError(t, err, sig.String())
			f := m.Function(sig.Symbol())
			require.NotNil(t, f, sig.String())
			assert.False(t, f.IsDeclaration())
			assert.Equal(t, sig.ReturnType, f.Return)
			assert.Equal(t, sig.ArgumentTypes, f.Params)
			assert.NoError(t, lir.VerifyModule(m))
		}
	}
}

func TestAbsBody(t *testing.T) {
	reg := registry.New()
	require.NoError(t, Register(reg))
	sig, err := reg.Lookup("abs", ir.TypeNull, []ir.ValueType{ir.TypeDouble})
	require.NoError(t, err)

	m, err := sig.Emitter(sig)
	require.NoError(t, err)
	want := `; module abs.double

define double @abs.double(double) {
  %0 = param double 0
  %1 = const double 0.0
  %2 = lt boolean %0, %1
  %3 = neg double %0
  %4 = select double %2, %3, %0
  ret double %4
}
`
	assert.Equal(t, want, lir.Format(m))
}

func TestOperatorEmitterArity(t *testing.T) {
	emit := OperatorEmitter(lir.OpAdd)
	_, err := emit(&registry.Signature{Name: "+", ArgumentTypes: []ir.ValueType{ir.TypeInt64}, ReturnType: ir.TypeInt64})
	assert.Error(t, err)
}
