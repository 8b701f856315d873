package ir

import (
	"fmt"
)

// ExprSpec is the file form of an expression (YAML or JSON).
// Exactly one of Literal, Op or Call must be set:
//
//	op: "+"
//	lhs: {literal: 1}
//	rhs:
//	  call: abs
//	  args: [{literal: -2, type: int64}]
//
// Type is optional for operators and calls (defaults to null, i.e.
// unresolved) and for literals whose payload implies a type.
type ExprSpec struct {
	Type    string      `yaml:"type,omitempty" json:"type,omitempty"`
	Literal any         `yaml:"literal,omitempty" json:"literal,omitempty"`
	ID      int8        `yaml:"id,omitempty" json:"id,omitempty"`
	Op      string      `yaml:"op,omitempty" json:"op,omitempty"`
	Lhs     *ExprSpec   `yaml:"lhs,omitempty" json:"lhs,omitempty"`
	Rhs     *ExprSpec   `yaml:"rhs,omitempty" json:"rhs,omitempty"`
	Call    string      `yaml:"call,omitempty" json:"call,omitempty"`
	Args    []*ExprSpec `yaml:"args,omitempty" json:"args,omitempty"`
}

// SpecError reports a malformed node in an expression file.
type SpecError struct {
	Path    string
	Message string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Build converts the spec into an expression tree.
func (s *ExprSpec) Build() (Expr, error) {
	return s.build("expr")
}

func (s *ExprSpec) build(path string) (Expr, error) {
	if s == nil {
		return nil, &SpecError{Path: path, Message: "missing expression"}
	}

	kinds := 0
	if s.Literal != nil {
		kinds++
	}
	if s.Op != "" {
		kinds++
	}
	if s.Call != "" {
		kinds++
	}
	if kinds != 1 {
		return nil, &SpecError{Path: path, Message: "exactly one of literal, op or call is required"}
	}

	declared := TypeNull
	if s.Type != "" {
		t, err := ParseValueType(s.Type)
		if err != nil {
			return nil, &SpecError{Path: path, Message: err.Error()}
		}
		declared = t
	}

	switch {
	case s.Literal != nil:
		if declared == TypeNull {
			declared = inferLiteralType(s.Literal)
			if declared == TypeNull {
				return nil, &SpecError{Path: path, Message: fmt.Sprintf("cannot infer type of literal %v", s.Literal)}
			}
		}
		v, err := ValueOf(declared, s.Literal)
		if err != nil {
			return nil, &SpecError{Path: path, Message: err.Error()}
		}
		return NewLiteral(v.WithID(s.ID)), nil

	case s.Op != "":
		op, ok := OpcodeByName(s.Op)
		if !ok {
			return nil, &SpecError{Path: path, Message: fmt.Sprintf("unknown operator %q", s.Op)}
		}
		lhs, err := s.Lhs.build(path + ".lhs")
		if err != nil {
			return nil, err
		}
		rhs, err := s.Rhs.build(path + ".rhs")
		if err != nil {
			return nil, err
		}
		return NewBinaryOp(declared, op, lhs, rhs), nil

	default:
		args := make([]Expr, len(s.Args))
		for i, a := range s.Args {
			arg, err := a.build(fmt.Sprintf("%s.args[%d]", path, i))
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		return NewFunctionCall(declared, s.Call, args...), nil
	}
}

// inferLiteralType picks the default type for an untyped payload:
// integers are int64, other numbers double.
func inferLiteralType(raw any) ValueType {
	switch raw.(type) {
	case int, int64:
		return TypeInt64
	case uint64:
		return TypeUint64
	case float64:
		return TypeDouble
	case bool:
		return TypeBoolean
	case string:
		return TypeString
	default:
		return TypeNull
	}
}
