package lir

import (
	"fmt"

	"github.com/roach88/scalarjit/internal/ir"
)

// EntryName is the symbol of the zero-argument function the code
// generator emits for the compiled expression.
const EntryName = "expr"

// Op is an LIR instruction opcode.
type Op uint8

const (
	OpConst Op = iota
	OpParam
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpNot
	OpNeg
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpConv
	OpSelect
	OpCall
	OpRet
)

var opNames = [...]string{
	OpConst:  "const",
	OpParam:  "param",
	OpAdd:    "add",
	OpSub:    "sub",
	OpMul:    "mul",
	OpDiv:    "div",
	OpRem:    "rem",
	OpAnd:    "and",
	OpOr:     "or",
	OpNot:    "not",
	OpNeg:    "neg",
	OpEq:     "eq",
	OpNe:     "ne",
	OpLt:     "lt",
	OpLe:     "le",
	OpGt:     "gt",
	OpGe:     "ge",
	OpConv:   "conv",
	OpSelect: "select",
	OpCall:   "call",
	OpRet:    "ret",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

func parseOp(s string) (Op, bool) {
	for i, name := range opNames {
		if name == s {
			return Op(i), true
		}
	}
	return 0, false
}

// IsArith reports whether op is a two-operand arithmetic instruction.
func (op Op) IsArith() bool {
	return op >= OpAdd && op <= OpRem
}

// IsCompare reports whether op is a comparison producing a boolean.
func (op Op) IsCompare() bool {
	return op >= OpEq && op <= OpGe
}

// Instr is one instruction. Which fields are meaningful depends on Op:
// Const for OpConst, Index for OpParam, Callee for OpCall.
type Instr struct {
	Op     Op
	Type   ir.ValueType // type of the defined value; for ret, the returned type
	Args   []int        // operand value numbers
	Const  ir.Value
	Index  int
	Callee string
}

// Function is a declaration (Body == nil) or a definition.
type Function struct {
	Name   string
	Params []ir.ValueType
	Return ir.ValueType
	Body   []Instr
}

// IsDeclaration reports whether f has no body.
func (f *Function) IsDeclaration() bool {
	return f.Body == nil
}

// SameType reports whether f and g have identical parameter and return types.
func (f *Function) SameType(g *Function) bool {
	return f.Return == g.Return && ir.TypesEqual(f.Params, g.Params)
}

// TypeString renders the function type as "int64(int64, int64)".
func (f *Function) TypeString() string {
	return f.Return.String() + ir.FormatTypes(f.Params)
}

func (f *Function) clone() *Function {
	cp := &Function{
		Name:   f.Name,
		Params: append([]ir.ValueType(nil), f.Params...),
		Return: f.Return,
	}
	if f.Body != nil {
		cp.Body = make([]Instr, len(f.Body))
		for i, in := range f.Body {
			in.Args = append([]int(nil), in.Args...)
			cp.Body[i] = in
		}
	}
	return cp
}

// Module is an ordered, name-indexed set of functions.
type Module struct {
	Name string

	// ID identifies one compilation; Source is the hash of the compiled
	// expression. Both are informational.
	ID     string
	Source string

	funcs []*Function
	index map[string]int
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, index: make(map[string]int)}
}

// Function returns the function named name, or nil.
func (m *Module) Function(name string) *Function {
	if i, ok := m.index[name]; ok {
		return m.funcs[i]
	}
	return nil
}

// Functions returns the functions in insertion order.
func (m *Module) Functions() []*Function {
	out := make([]*Function, len(m.funcs))
	copy(out, m.funcs)
	return out
}

// Len returns the number of functions.
func (m *Module) Len() int {
	return len(m.funcs)
}

// Declarations returns the names of functions without a body.
func (m *Module) Declarations() []string {
	var names []string
	for _, f := range m.funcs {
		if f.IsDeclaration() {
			names = append(names, f.Name)
		}
	}
	return names
}

// Declare inserts a declaration for name unless a function with that
// name exists already. An existing function of a different type is an error.
func (m *Module) Declare(name string, ret ir.ValueType, params ...ir.ValueType) (*Function, error) {
	decl := &Function{Name: name, Params: append([]ir.ValueType(nil), params...), Return: ret}
	if f := m.Function(name); f != nil {
		if !f.SameType(decl) {
			return nil, &LinkError{
				Symbol:  name,
				Message: fmt.Sprintf("declared as %s, already %s", decl.TypeString(), f.TypeString()),
			}
		}
		return f, nil
	}
	m.add(decl)
	return decl, nil
}

// add appends f. The caller guarantees the name is free.
func (m *Module) add(f *Function) {
	m.index[f.Name] = len(m.funcs)
	m.funcs = append(m.funcs, f)
}

// replace swaps the function stored under f.Name, keeping its position.
func (m *Module) replace(f *Function) {
	m.funcs[m.index[f.Name]] = f
}

// Clone returns a deep copy of m.
func (m *Module) Clone() *Module {
	cp := NewModule(m.Name)
	cp.ID = m.ID
	cp.Source = m.Source
	for _, f := range m.funcs {
		cp.add(f.clone())
	}
	return cp
}
