package catalog

import (
	"errors"
	"log/slog"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
	"github.com/roach88/scalarjit/internal/registry"
)

// ExternEmitter emits a module holding only a declaration of the
// signature's symbol. The body is supplied by the symbol resolver when the
// compiled module first calls it.
func ExternEmitter(sig *registry.Signature) (*lir.Module, error) {
	m := lir.NewModule(sig.Symbol())
	if _, err := m.Declare(sig.Symbol(), sig.ReturnType, sig.ArgumentTypes...); err != nil {
		return nil, err
	}
	return m, nil
}

// Signatures validates the catalog and converts its functions to registry
// signatures, in declaration order.
func (c *Catalog) Signatures() ([]*registry.Signature, error) {
	if errs := Validate(c); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, errors.Join(joined...)
	}

	sigs := make([]*registry.Signature, 0, len(c.Functions))
	for _, fn := range c.Functions {
		args := make([]ir.ValueType, len(fn.Args))
		for i, a := range fn.Args {
			// Validate already rejected unknown names.
			args[i], _ = ir.ParseValueType(a)
		}
		ret, _ := ir.ParseValueType(fn.Returns)
		sigs = append(sigs, &registry.Signature{
			Name:          fn.Name,
			ArgumentTypes: args,
			ReturnType:    ret,
			Emitter:       ExternEmitter,
			Link:          fn.Symbol(),
		})
	}
	return sigs, nil
}

// Apply registers every catalog function with reg. Register it after the
// builtins so a catalog entry cannot shadow a builtin overload.
func (c *Catalog) Apply(reg *registry.Registry) error {
	sigs, err := c.Signatures()
	if err != nil {
		return err
	}
	for _, sig := range sigs {
		if err := reg.Register(sig); err != nil {
			return err
		}
	}
	slog.Debug("catalog applied", "functions", len(sigs))
	return nil
}
