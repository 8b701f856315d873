package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
)

// exec interprets the body of f. The module was verified by New, so
// operand references and types are trusted.
func (c *call) exec(ctx context.Context, f *lir.Function, args []ir.Value, depth int) (ir.Value, error) {
	vals := make([]ir.Value, len(f.Body))
	for i, in := range f.Body {
		if err := c.quota.Check(f.Name); err != nil {
			return ir.Value{}, NewQuotaError(f.Name, err.(*StepsExceededError))
		}
		arg := func(n int) ir.Value { return vals[in.Args[n]] }

		switch {
		case in.Op == lir.OpConst:
			vals[i] = in.Const
		case in.Op == lir.OpParam:
			vals[i] = args[in.Index]
		case in.Op.IsArith():
			v, err := arith(in.Op, in.Type, arg(0), arg(1))
			if err != nil {
				err.Function = f.Name
				return ir.Value{}, err
			}
			vals[i] = v
		case in.Op.IsCompare():
			vals[i] = ir.NewBool(compare(in.Op, arg(0), arg(1)))
		case in.Op == lir.OpAnd:
			vals[i] = ir.NewBool(arg(0).Bool() && arg(1).Bool())
		case in.Op == lir.OpOr:
			vals[i] = ir.NewBool(arg(0).Bool() || arg(1).Bool())
		case in.Op == lir.OpNot:
			vals[i] = ir.NewBool(!arg(0).Bool())
		case in.Op == lir.OpNeg:
			vals[i] = neg(arg(0))
		case in.Op == lir.OpConv:
			vals[i] = conv(in.Type, arg(0))
		case in.Op == lir.OpSelect:
			if arg(0).Bool() {
				vals[i] = arg(1)
			} else {
				vals[i] = arg(2)
			}
		case in.Op == lir.OpCall:
			callArgs := make([]ir.Value, len(in.Args))
			for n := range in.Args {
				callArgs[n] = arg(n)
			}
			v, err := c.invoke(ctx, in.Callee, f, callArgs, depth+1)
			if err != nil {
				return ir.Value{}, err
			}
			vals[i] = v
		case in.Op == lir.OpRet:
			return arg(0), nil
		default:
			return ir.Value{}, fmt.Errorf("engine: @%s: %%%d: unknown op %s", f.Name, i, in.Op)
		}
	}
	return ir.Value{}, fmt.Errorf("engine: @%s fell off the end", f.Name)
}

func arith(op lir.Op, t ir.ValueType, x, y ir.Value) (ir.Value, *RuntimeError) {
	switch t {
	case ir.TypeInt64:
		a, b := x.Int64(), y.Int64()
		if (op == lir.OpDiv || op == lir.OpRem) && b == 0 {
			return ir.Value{}, divideByZero(op, t)
		}
		switch op {
		case lir.OpAdd:
			return ir.NewInt64(a + b), nil
		case lir.OpSub:
			return ir.NewInt64(a - b), nil
		case lir.OpMul:
			return ir.NewInt64(a * b), nil
		case lir.OpDiv:
			return ir.NewInt64(a / b), nil
		case lir.OpRem:
			return ir.NewInt64(a % b), nil
		}
	case ir.TypeUint64:
		a, b := x.Uint64(), y.Uint64()
		if (op == lir.OpDiv || op == lir.OpRem) && b == 0 {
			return ir.Value{}, divideByZero(op, t)
		}
		switch op {
		case lir.OpAdd:
			return ir.NewUint64(a + b), nil
		case lir.OpSub:
			return ir.NewUint64(a - b), nil
		case lir.OpMul:
			return ir.NewUint64(a * b), nil
		case lir.OpDiv:
			return ir.NewUint64(a / b), nil
		case lir.OpRem:
			return ir.NewUint64(a % b), nil
		}
	case ir.TypeDouble:
		a, b := x.Double(), y.Double()
		switch op {
		case lir.OpAdd:
			return ir.NewDouble(a + b), nil
		case lir.OpSub:
			return ir.NewDouble(a - b), nil
		case lir.OpMul:
			return ir.NewDouble(a * b), nil
		case lir.OpDiv:
			return ir.NewDouble(a / b), nil
		}
	}
	return ir.Value{}, &RuntimeError{Code: ErrCodeTypeMismatch, Message: fmt.Sprintf("%s on %s", op, t)}
}

func divideByZero(op lir.Op, t ir.ValueType) *RuntimeError {
	return &RuntimeError{Code: ErrCodeDivideByZero, Message: fmt.Sprintf("%s %s by zero", t, op)}
}

func compare(op lir.Op, x, y ir.Value) bool {
	var c int
	switch x.Type {
	case ir.TypeInt64:
		c = cmp3(x.Int64(), y.Int64())
	case ir.TypeUint64:
		c = cmp3(x.Uint64(), y.Uint64())
	case ir.TypeDouble:
		a, b := x.Double(), y.Double()
		// NaN is unordered: only ne holds.
		if math.IsNaN(a) || math.IsNaN(b) {
			return op == lir.OpNe
		}
		c = cmp3(a, b)
	case ir.TypeBoolean:
		c = cmp3(x.Bits(), y.Bits())
	}
	switch op {
	case lir.OpEq:
		return c == 0
	case lir.OpNe:
		return c != 0
	case lir.OpLt:
		return c < 0
	case lir.OpLe:
		return c <= 0
	case lir.OpGt:
		return c > 0
	default:
		return c >= 0
	}
}

func cmp3[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func neg(x ir.Value) ir.Value {
	switch x.Type {
	case ir.TypeUint64:
		return ir.NewUint64(-x.Uint64())
	case ir.TypeDouble:
		return ir.NewDouble(-x.Double())
	default:
		return ir.NewInt64(-x.Int64())
	}
}

func conv(t ir.ValueType, x ir.Value) ir.Value {
	var (
		i int64
		u uint64
		f float64
	)
	switch x.Type {
	case ir.TypeInt64:
		i, u, f = x.Int64(), uint64(x.Int64()), float64(x.Int64())
	case ir.TypeUint64:
		i, u, f = int64(x.Uint64()), x.Uint64(), float64(x.Uint64())
	case ir.TypeDouble:
		i, u, f = int64(x.Double()), uint64(x.Double()), x.Double()
	}
	switch t {
	case ir.TypeInt64:
		return ir.NewInt64(i)
	case ir.TypeUint64:
		return ir.NewUint64(u)
	default:
		return ir.NewDouble(f)
	}
}
