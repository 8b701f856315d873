package ir

import "fmt"

// Opcode identifies a binary operator.
type Opcode uint8

const (
	// Arithmetic (int64, uint64, double).
	Plus Opcode = iota
	Minus
	Multiply
	Divide
	// Integral.
	Modulo
	// Logical.
	And
	Or
	// Relational.
	Equal
	NotEqual
	Less
	LessOrEqual
	Greater
	GreaterOrEqual
)

// operatorNames is the fixed opcode -> registry name bijection.
var operatorNames = [...]string{
	Plus:           "+",
	Minus:          "-",
	Multiply:       "*",
	Divide:         "/",
	Modulo:         "%",
	And:            "&&",
	Or:             "||",
	Equal:          "==",
	NotEqual:       "!=",
	Less:           "<",
	LessOrEqual:    "<=",
	Greater:        ">",
	GreaterOrEqual: ">=",
}

var opcodeIdents = [...]string{
	Plus:           "plus",
	Minus:          "minus",
	Multiply:       "multiply",
	Divide:         "divide",
	Modulo:         "modulo",
	And:            "and",
	Or:             "or",
	Equal:          "equal",
	NotEqual:       "not_equal",
	Less:           "less",
	LessOrEqual:    "less_or_equal",
	Greater:        "greater",
	GreaterOrEqual: "greater_or_equal",
}

// Opcodes lists every opcode in declaration order.
func Opcodes() []Opcode {
	ops := make([]Opcode, len(operatorNames))
	for i := range operatorNames {
		ops[i] = Opcode(i)
	}
	return ops
}

// Valid reports whether op is inside the enumeration.
func (op Opcode) Valid() bool {
	return int(op) < len(operatorNames)
}

// Name returns the registry name of the operator ("+" for Plus).
//
// An opcode outside the enumeration is a programming error; Name panics
// instead of letting a lookup run against an undefined name.
func (op Opcode) Name() string {
	if !op.Valid() {
		panic(fmt.Sprintf("ir: invalid opcode %d", uint8(op)))
	}
	return operatorNames[op]
}

// String returns the identifier form ("plus") or a placeholder for
// invalid opcodes. Unlike Name it never panics, so it is safe in logs.
func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Opcode(%d)", uint8(op))
	}
	return opcodeIdents[op]
}

// OpcodeByName resolves either the operator name ("+") or the identifier
// form ("plus") to an opcode.
func OpcodeByName(name string) (Opcode, bool) {
	for i := range operatorNames {
		if operatorNames[i] == name || opcodeIdents[i] == name {
			return Opcode(i), true
		}
	}
	return 0, false
}
