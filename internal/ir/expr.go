package ir

// Expr is a node of a scalar expression tree.
// Sealed - only *Literal, *BinaryOp and *FunctionCall implement it.
//
// Nodes are immutable after construction and may be shared by several
// parents. Construction performs no validation; whether a tree is
// well-typed is decided by the type resolver.
type Expr interface {
	// Declared returns the node's stored Type field, which may be TypeNull.
	Declared() ValueType
	exprNode()
}

// Literal is a constant scalar.
type Literal struct {
	Type  ValueType
	Value Value
}

// BinaryOp applies an operator to two operands.
type BinaryOp struct {
	Type ValueType
	Op   Opcode
	Lhs  Expr
	Rhs  Expr
}

// FunctionCall applies a named function to ordered arguments.
type FunctionCall struct {
	Type ValueType
	Name string
	Args []Expr
}

func (*Literal) exprNode()      {}
func (*BinaryOp) exprNode()     {}
func (*FunctionCall) exprNode() {}

func (e *Literal) Declared() ValueType      { return e.Type }
func (e *BinaryOp) Declared() ValueType     { return e.Type }
func (e *FunctionCall) Declared() ValueType { return e.Type }

// NewLiteral creates a literal typed by its value.
func NewLiteral(v Value) *Literal {
	return &Literal{Type: v.Type, Value: v}
}

// NewTypedLiteral creates a literal whose declared type may differ from
// the payload's. Useful for building deliberately ill-typed trees.
func NewTypedLiteral(t ValueType, v Value) *Literal {
	return &Literal{Type: t, Value: v}
}

// NewBinaryOp creates an operator node. t is usually TypeNull until resolved.
func NewBinaryOp(t ValueType, op Opcode, lhs, rhs Expr) *BinaryOp {
	return &BinaryOp{Type: t, Op: op, Lhs: lhs, Rhs: rhs}
}

// NewFunctionCall creates a call node. The argument slice is copied.
func NewFunctionCall(t ValueType, name string, args ...Expr) *FunctionCall {
	cp := make([]Expr, len(args))
	copy(cp, args)
	return &FunctionCall{Type: t, Name: name, Args: cp}
}

// Int64 is a shorthand for an int64 literal.
func Int64(n int64) *Literal { return NewLiteral(NewInt64(n)) }

// Uint64 is a shorthand for a uint64 literal.
func Uint64(n uint64) *Literal { return NewLiteral(NewUint64(n)) }

// Double is a shorthand for a double literal.
func Double(f float64) *Literal { return NewLiteral(NewDouble(f)) }

// Bool is a shorthand for a boolean literal.
func Bool(b bool) *Literal { return NewLiteral(NewBool(b)) }

// String is a shorthand for a string literal.
func String(s string) *Literal { return NewLiteral(NewString(s)) }

// Children returns the direct children of e in evaluation order.
func Children(e Expr) []Expr {
	switch n := e.(type) {
	case *BinaryOp:
		return []Expr{n.Lhs, n.Rhs}
	case *FunctionCall:
		return n.Args
	default:
		return nil
	}
}

// Walk visits e and its descendants in pre-order. Returning false from
// fn skips the node's children. Shared subtrees are visited once per parent.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, fn)
	}
}

// Kind names the variant of e for diagnostics.
func Kind(e Expr) string {
	switch e.(type) {
	case *Literal:
		return "literal"
	case *BinaryOp:
		return "binary_op"
	case *FunctionCall:
		return "function_call"
	case nil:
		return "nil"
	default:
		return "unknown"
	}
}
