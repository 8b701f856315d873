package registry

import (
	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
)

// BodyEmitter produces a module containing the body of sig under the
// symbol sig.Symbol(). A module holding only a declaration of that symbol
// leaves the body to the external symbol resolver.
type BodyEmitter func(sig *Signature) (*lir.Module, error)

// Signature is one overload of an operator or function.
// Signatures must not be modified after registration.
type Signature struct {
	Name          string
	ArgumentTypes []ir.ValueType
	ReturnType    ir.ValueType
	Emitter       BodyEmitter

	// Link is the LIR symbol of the body. Overloads of one name need
	// distinct link names; empty means Name.
	Link string
}

// Symbol returns the LIR symbol the generated code calls.
func (s *Signature) Symbol() string {
	if s.Link != "" {
		return s.Link
	}
	return s.Name
}

// ID returns the content identity of the signature. Two signatures with
// equal IDs emit interchangeable bodies.
func (s *Signature) ID() string {
	return ir.SignatureID(s.Name, s.Symbol(), s.ArgumentTypes, s.ReturnType)
}

// Matches reports whether s satisfies a lookup for result and args.
// TypeNull as result and a nil args slice are wildcards.
func (s *Signature) Matches(result ir.ValueType, args []ir.ValueType) bool {
	if result != ir.TypeNull && result != s.ReturnType {
		return false
	}
	if args == nil {
		return true
	}
	return ir.TypesEqual(s.ArgumentTypes, args)
}

// String renders the signature as "name(int64, int64) int64".
func (s *Signature) String() string {
	return s.Name + ir.FormatTypes(s.ArgumentTypes) + " " + s.ReturnType.String()
}
