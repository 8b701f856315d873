package engine

import (
	"context"

	"github.com/roach88/scalarjit/internal/ir"
)

// Func is the body of an external symbol.
type Func func(ctx context.Context, args []ir.Value) (ir.Value, error)

// Resolver supplies bodies for symbols a module only declares.
// Errors are reported to callers wrapped in a RuntimeError with code
// ErrCodeUnresolvedSymbol.
type Resolver interface {
	Resolve(ctx context.Context, symbol string) (Func, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, symbol string) (Func, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, symbol string) (Func, error) {
	return f(ctx, symbol)
}

// Natives resolves symbols from a fixed map.
type Natives map[string]Func

// Resolve returns the function registered under symbol.
func (n Natives) Resolve(_ context.Context, symbol string) (Func, error) {
	if fn, ok := n[symbol]; ok {
		return fn, nil
	}
	return nil, &RuntimeError{Code: ErrCodeUnresolvedSymbol, Message: "no native function", Symbol: symbol}
}
