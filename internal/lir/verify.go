package lir

import (
	"fmt"

	"github.com/roach88/scalarjit/internal/ir"
)

// Verify checks the internal consistency of f. When m is non-nil, call
// targets must also exist in m with a matching type.
//
// Declarations always verify.
func Verify(f *Function, m *Module) error {
	if f.IsDeclaration() {
		return nil
	}
	v := &verifier{f: f, m: m}
	return v.run()
}

// VerifyModule verifies every function of m against m.
func VerifyModule(m *Module) error {
	for _, f := range m.funcs {
		if err := Verify(f, m); err != nil {
			return err
		}
	}
	return nil
}

type verifier struct {
	f *Function
	m *Module
}

func (v *verifier) errorf(i int, format string, args ...any) error {
	return &VerifyError{Function: v.f.Name, Instr: i, Message: fmt.Sprintf(format, args...)}
}

func (v *verifier) run() error {
	body := v.f.Body
	if len(body) == 0 {
		return v.errorf(-1, "empty body")
	}
	if body[len(body)-1].Op != OpRet {
		return v.errorf(len(body)-1, "function does not end in ret")
	}
	if !isValueType(v.f.Return) {
		return v.errorf(-1, "invalid return type %s", v.f.Return)
	}
	for i := range body {
		if err := v.instr(i); err != nil {
			return err
		}
	}
	return nil
}

// isValueType reports whether t can be carried by an LIR value.
func isValueType(t ir.ValueType) bool {
	switch t {
	case ir.TypeInt64, ir.TypeUint64, ir.TypeDouble, ir.TypeBoolean:
		return true
	}
	return false
}

func isNumeric(t ir.ValueType) bool {
	return t == ir.TypeInt64 || t == ir.TypeUint64 || t == ir.TypeDouble
}

func isIntegral(t ir.ValueType) bool {
	return t == ir.TypeInt64 || t == ir.TypeUint64
}

// operand returns the type of the value referenced by the n-th operand
// of instruction i.
func (v *verifier) operand(i, n int) (ir.ValueType, error) {
	in := v.f.Body[i]
	if n >= len(in.Args) {
		return ir.TypeNull, v.errorf(i, "%s: missing operand %d", in.Op, n)
	}
	ref := in.Args[n]
	if ref < 0 || ref >= i {
		return ir.TypeNull, v.errorf(i, "%s: operand %%%d is not defined before use", in.Op, ref)
	}
	def := v.f.Body[ref]
	if def.Op == OpRet {
		return ir.TypeNull, v.errorf(i, "%s: operand %%%d does not define a value", in.Op, ref)
	}
	return def.Type, nil
}

func (v *verifier) arity(i, n int) error {
	in := v.f.Body[i]
	if len(in.Args) != n {
		return v.errorf(i, "%s takes %d operands, got %d", in.Op, n, len(in.Args))
	}
	return nil
}

func (v *verifier) instr(i int) error {
	in := v.f.Body[i]
	if in.Op == OpRet && i != len(v.f.Body)-1 {
		return v.errorf(i, "ret before end of function")
	}
	if in.Op != OpRet && !isValueType(in.Type) {
		return v.errorf(i, "%s defines value of unsupported type %s", in.Op, in.Type)
	}

	switch {
	case in.Op == OpConst:
		if err := v.arity(i, 0); err != nil {
			return err
		}
		if in.Const.Type != in.Type {
			return v.errorf(i, "const of type %s carries %s payload", in.Type, in.Const.Type)
		}

	case in.Op == OpParam:
		if err := v.arity(i, 0); err != nil {
			return err
		}
		if in.Index < 0 || in.Index >= len(v.f.Params) {
			return v.errorf(i, "param %d out of range (function has %d)", in.Index, len(v.f.Params))
		}
		if v.f.Params[in.Index] != in.Type {
			return v.errorf(i, "param %d has type %s, not %s", in.Index, v.f.Params[in.Index], in.Type)
		}

	case in.Op.IsArith():
		if err := v.arity(i, 2); err != nil {
			return err
		}
		if err := v.sameOperands(i, in.Type); err != nil {
			return err
		}
		if !isNumeric(in.Type) {
			return v.errorf(i, "%s on non-numeric type %s", in.Op, in.Type)
		}
		if in.Op == OpRem && !isIntegral(in.Type) {
			return v.errorf(i, "rem on non-integral type %s", in.Type)
		}

	case in.Op == OpAnd || in.Op == OpOr:
		if err := v.arity(i, 2); err != nil {
			return err
		}
		if err := v.sameOperands(i, ir.TypeBoolean); err != nil {
			return err
		}
		if in.Type != ir.TypeBoolean {
			return v.errorf(i, "%s must produce boolean", in.Op)
		}

	case in.Op == OpNot:
		if err := v.arity(i, 1); err != nil {
			return err
		}
		if err := v.sameOperands(i, ir.TypeBoolean); err != nil {
			return err
		}
		if in.Type != ir.TypeBoolean {
			return v.errorf(i, "not must produce boolean")
		}

	case in.Op == OpNeg:
		if err := v.arity(i, 1); err != nil {
			return err
		}
		if err := v.sameOperands(i, in.Type); err != nil {
			return err
		}
		if !isNumeric(in.Type) {
			return v.errorf(i, "neg on non-numeric type %s", in.Type)
		}

	case in.Op.IsCompare():
		if err := v.arity(i, 2); err != nil {
			return err
		}
		x, err := v.operand(i, 0)
		if err != nil {
			return err
		}
		if err := v.sameOperands(i, x); err != nil {
			return err
		}
		if in.Type != ir.TypeBoolean {
			return v.errorf(i, "%s must produce boolean", in.Op)
		}
		if x == ir.TypeBoolean && in.Op != OpEq && in.Op != OpNe {
			return v.errorf(i, "%s is not defined on boolean", in.Op)
		}

	case in.Op == OpConv:
		if err := v.arity(i, 1); err != nil {
			return err
		}
		x, err := v.operand(i, 0)
		if err != nil {
			return err
		}
		if !isNumeric(x) || !isNumeric(in.Type) {
			return v.errorf(i, "conv from %s to %s", x, in.Type)
		}

	case in.Op == OpSelect:
		if err := v.arity(i, 3); err != nil {
			return err
		}
		c, err := v.operand(i, 0)
		if err != nil {
			return err
		}
		if c != ir.TypeBoolean {
			return v.errorf(i, "select condition has type %s", c)
		}
		for n := 1; n < 3; n++ {
			t, err := v.operand(i, n)
			if err != nil {
				return err
			}
			if t != in.Type {
				return v.errorf(i, "select operand %d has type %s, want %s", n, t, in.Type)
			}
		}

	case in.Op == OpCall:
		return v.call(i)

	case in.Op == OpRet:
		if err := v.arity(i, 1); err != nil {
			return err
		}
		t, err := v.operand(i, 0)
		if err != nil {
			return err
		}
		if t != v.f.Return || in.Type != v.f.Return {
			return v.errorf(i, "ret of %s in function returning %s", t, v.f.Return)
		}

	default:
		return v.errorf(i, "unknown opcode %s", in.Op)
	}
	return nil
}

// sameOperands checks that every operand of instruction i has type want.
func (v *verifier) sameOperands(i int, want ir.ValueType) error {
	for n := range v.f.Body[i].Args {
		t, err := v.operand(i, n)
		if err != nil {
			return err
		}
		if t != want {
			return v.errorf(i, "%s operand %d has type %s, want %s", v.f.Body[i].Op, n, t, want)
		}
	}
	return nil
}

func (v *verifier) call(i int) error {
	in := v.f.Body[i]
	if in.Callee == "" {
		return v.errorf(i, "call without callee")
	}
	args := make([]ir.ValueType, len(in.Args))
	for n := range in.Args {
		t, err := v.operand(i, n)
		if err != nil {
			return err
		}
		args[n] = t
	}
	if v.m == nil {
		return nil
	}
	target := v.m.Function(in.Callee)
	if target == nil {
		return v.errorf(i, "call to undeclared @%s", in.Callee)
	}
	if !ir.TypesEqual(target.Params, args) {
		return v.errorf(i, "call to @%s with %s, declared %s", in.Callee, ir.FormatTypes(args), ir.FormatTypes(target.Params))
	}
	if target.Return != in.Type {
		return v.errorf(i, "call to @%s expects %s, declared to return %s", in.Callee, in.Type, target.Return)
	}
	return nil
}
