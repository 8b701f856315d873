package symbols

import (
	"context"
	"fmt"
	"plugin"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/scalarjit/internal/engine"
	"github.com/roach88/scalarjit/internal/ir"
)

// openPlugin loads a Go plugin and returns its body for name. Go plugins
// only export capitalized identifiers, so "myudf" is looked up as given
// and then as "Myudf".
func openPlugin(path, name string) (engine.Func, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	var sym plugin.Symbol
	for _, candidate := range exportNames(name) {
		if sym, err = p.Lookup(candidate); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("plugin exports no %s: %w", strings.Join(exportNames(name), " or "), err)
	}
	return asFunc(sym)
}

func exportNames(name string) []string {
	r, size := utf8.DecodeRuneInString(name)
	exported := string(unicode.ToUpper(r)) + name[size:]
	if exported == name {
		return []string{name}
	}
	return []string{name, exported}
}

// asFunc accepts exported functions and variables of either body shape.
func asFunc(sym plugin.Symbol) (engine.Func, error) {
	switch f := sym.(type) {
	case func(context.Context, []ir.Value) (ir.Value, error):
		return f, nil
	case *engine.Func:
		return *f, nil
	case *func(context.Context, []ir.Value) (ir.Value, error):
		return *f, nil
	case func([]ir.Value) (ir.Value, error):
		return withoutContext(f), nil
	case *func([]ir.Value) (ir.Value, error):
		return withoutContext(*f), nil
	default:
		return nil, fmt.Errorf("exported symbol has unsupported type %T", sym)
	}
}

func withoutContext(f func([]ir.Value) (ir.Value, error)) engine.Func {
	return func(_ context.Context, args []ir.Value) (ir.Value, error) {
		return f(args)
	}
}
