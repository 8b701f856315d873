package registry

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/scalarjit/internal/ir"
)

// Registry maps names to ordered overload lists.
type Registry struct {
	mu     sync.RWMutex
	byName map[string][]*Signature
	frozen bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string][]*Signature)}
}

// Register appends sig to the overloads of sig.Name.
//
// Duplicates are accepted: an overload with the same argument types as an
// earlier one can never be selected, which is logged but not an error.
func (r *Registry) Register(sig *Signature) error {
	if sig == nil {
		return &RegistrationError{Message: "nil signature"}
	}
	if sig.Name == "" {
		return &RegistrationError{Message: "empty name"}
	}
	if sig.Emitter == nil {
		return &RegistrationError{Name: sig.Name, Message: "nil body emitter"}
	}
	if sig.ReturnType == ir.TypeNull {
		return &RegistrationError{Name: sig.Name, Message: "return type must not be null"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	for _, prev := range r.byName[sig.Name] {
		if ir.TypesEqual(prev.ArgumentTypes, sig.ArgumentTypes) {
			slog.Warn("overload shadowed",
				"name", sig.Name,
				"args", ir.FormatTypes(sig.ArgumentTypes),
				"kept", prev.Symbol(),
				"shadowed", sig.Symbol())
			break
		}
	}
	r.byName[sig.Name] = append(r.byName[sig.Name], sig)
	return nil
}

// RegisterOperator registers an overload of op under its canonical name.
// It panics if op is outside the opcode enumeration.
func (r *Registry) RegisterOperator(op ir.Opcode, args []ir.ValueType, ret ir.ValueType, emitter BodyEmitter, link string) error {
	return r.Register(&Signature{
		Name:          op.Name(),
		ArgumentTypes: args,
		ReturnType:    ret,
		Emitter:       emitter,
		Link:          link,
	})
}

// Lookup returns the first overload of name matching result and args.
// TypeNull as result matches any return type; nil args matches any
// argument list, while an empty non-nil slice matches only zero-arity
// overloads.
func (r *Registry) Lookup(name string, result ir.ValueType, args []ir.ValueType) (*Signature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	overloads, ok := r.byName[name]
	if !ok {
		return nil, &LookupError{Code: ErrCodeNotFound, Name: name, Result: result, Args: args}
	}
	for _, sig := range overloads {
		if sig.Matches(result, args) {
			return sig, nil
		}
	}
	return nil, &LookupError{Code: ErrCodeNoMatch, Name: name, Result: result, Args: args}
}

// LookupByOperator is Lookup under op's canonical name.
// It panics if op is outside the opcode enumeration.
func (r *Registry) LookupByOperator(op ir.Opcode, result ir.ValueType, args []ir.ValueType) (*Signature, error) {
	return r.Lookup(op.Name(), result, args)
}

// Freeze rejects further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Overloads returns the overloads of name in registration order.
func (r *Registry) Overloads(name string) []*Signature {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.byName[name])
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the total number of registered overloads.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, overloads := range r.byName {
		n += len(overloads)
	}
	return n
}
