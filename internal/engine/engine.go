package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
)

// DefaultMaxSteps is the default instruction quota per top-level call.
const DefaultMaxSteps = 100_000

// DefaultMaxDepth is the default limit on nested calls.
const DefaultMaxDepth = 256

// Event records one completed call.
type Event struct {
	Seq      int64
	Depth    int
	Symbol   string
	Args     []ir.Value
	Result   ir.Value
	External bool
}

// Sequencer numbers trace events. *Clock is the default.
type Sequencer interface {
	Next() int64
}

// Tracer receives an Event after every completed call, innermost first.
// It is called synchronously from the executing goroutine.
type Tracer func(Event)

// Engine executes functions of one verified module.
type Engine struct {
	m        *lir.Module
	resolver Resolver
	maxSteps int
	maxDepth int
	clock    Sequencer
	tracer   Tracer

	mu       sync.Mutex
	external map[string]Func
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithResolver sets the resolver for declared-only symbols.
// Without one, every external call fails with ErrCodeUnresolvedSymbol.
func WithResolver(r Resolver) EngineOption {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithMaxSteps sets the instruction quota per top-level call.
//
// Default: 100000 steps (DefaultMaxSteps). Zero disables the quota.
func WithMaxSteps(maxSteps int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = maxSteps
	}
}

// WithMaxDepth sets the limit on nested calls. Default: DefaultMaxDepth.
func WithMaxDepth(maxDepth int) EngineOption {
	return func(e *Engine) {
		e.maxDepth = maxDepth
	}
}

// WithTracer installs a call tracer.
func WithTracer(t Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithClock sets the sequencer numbering trace events.
func WithClock(c Sequencer) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// New verifies m and returns an engine executing it. m must not be
// modified afterwards.
func New(m *lir.Module, opts ...EngineOption) (*Engine, error) {
	if err := lir.VerifyModule(m); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e := &Engine{
		m:        m,
		maxSteps: DefaultMaxSteps,
		maxDepth: DefaultMaxDepth,
		clock:    NewClock(),
		external: make(map[string]Func),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Module returns the module being executed.
func (e *Engine) Module() *lir.Module {
	return e.m
}

// Run evaluates the compiled expression by calling lir.EntryName.
func (e *Engine) Run(ctx context.Context) (ir.Value, error) {
	return e.Call(ctx, lir.EntryName)
}

// Call invokes the function named name with args.
//
// When ctx comes from an external call made by another engine (a hosted
// artifact serving a symbol), the call continues that engine's quota,
// depth and trace numbering instead of starting fresh, so recursion
// through artifacts stays bounded.
func (e *Engine) Call(ctx context.Context, name string, args ...ir.Value) (ir.Value, error) {
	if f, ok := ctx.Value(frameKey{}).(*frame); ok {
		c := &call{e: e, quota: f.quota, clock: f.clock}
		return c.invoke(ctx, name, nil, args, f.depth)
	}
	c := &call{e: e, quota: NewQuotaEnforcer(e.maxSteps), clock: e.clock}
	v, err := c.invoke(ctx, name, nil, args, 0)
	slog.Debug("call finished", "function", name, "module", e.m.ID, "steps", c.quota.Current())
	return v, err
}

// Func returns name as a Func, so that a hosting engine can serve as the
// external body of a symbol in another module.
func (e *Engine) Func(name string) (Func, error) {
	f := e.m.Function(name)
	if f == nil {
		return nil, &RuntimeError{Code: ErrCodeUnknownFunction, Message: "module has no such function", Symbol: name}
	}
	return func(ctx context.Context, args []ir.Value) (ir.Value, error) {
		return e.Call(ctx, name, args...)
	}, nil
}

// resolve returns the external body of symbol, asking the resolver once.
// Failures are not remembered.
func (e *Engine) resolve(ctx context.Context, symbol string) (Func, error) {
	e.mu.Lock()
	fn, ok := e.external[symbol]
	e.mu.Unlock()
	if ok {
		return fn, nil
	}
	if e.resolver == nil {
		return nil, &RuntimeError{Code: ErrCodeUnresolvedSymbol, Message: "no resolver configured", Symbol: symbol}
	}

	fn, err := e.resolver.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("resolver returned no function for %q", symbol)
	}

	e.mu.Lock()
	if existing, ok := e.external[symbol]; ok {
		fn = existing
	} else {
		e.external[symbol] = fn
	}
	e.mu.Unlock()
	slog.Debug("external symbol resolved", "symbol", symbol, "module", e.m.ID)
	return fn, nil
}

// call is the state of one top-level Call.
type call struct {
	e     *Engine
	quota *QuotaEnforcer
	clock Sequencer
}

// frame is the part of a call an external body inherits through its
// context.
type frame struct {
	quota *QuotaEnforcer
	clock Sequencer
	depth int
}

type frameKey struct{}

// invoke runs name, either in the module or through the resolver. caller
// is the calling function for diagnostics, nil at top level.
func (c *call) invoke(ctx context.Context, name string, caller *lir.Function, args []ir.Value, depth int) (ir.Value, error) {
	callerName := ""
	if caller != nil {
		callerName = caller.Name
	}
	if depth > c.e.maxDepth {
		return ir.Value{}, &RuntimeError{
			Code:     ErrCodeDepthExceeded,
			Message:  fmt.Sprintf("call depth %d exceeds limit %d", depth, c.e.maxDepth),
			Function: callerName,
			Symbol:   name,
		}
	}
	if err := ctx.Err(); err != nil {
		return ir.Value{}, err
	}

	f := c.e.m.Function(name)
	if f == nil {
		return ir.Value{}, &RuntimeError{
			Code:     ErrCodeUnknownFunction,
			Message:  fmt.Sprintf("module has no function @%s", name),
			Function: callerName,
			Symbol:   name,
		}
	}
	if err := checkArgs(f, args); err != nil {
		err.Function = callerName
		return ir.Value{}, err
	}

	var (
		result ir.Value
		err    error
	)
	external := f.IsDeclaration()
	if external {
		result, err = c.external(ctx, f, callerName, args, depth)
	} else {
		result, err = c.exec(ctx, f, args, depth)
	}
	if err != nil {
		return ir.Value{}, err
	}

	if c.e.tracer != nil {
		c.e.tracer(Event{
			Seq:      c.clock.Next(),
			Depth:    depth,
			Symbol:   name,
			Args:     args,
			Result:   result,
			External: external,
		})
	}
	return result, nil
}

func (c *call) external(ctx context.Context, f *lir.Function, caller string, args []ir.Value, depth int) (ir.Value, error) {
	fn, err := c.e.resolve(ctx, f.Name)
	if err != nil {
		return ir.Value{}, &RuntimeError{
			Code:     ErrCodeUnresolvedSymbol,
			Message:  fmt.Sprintf("cannot resolve @%s", f.Name),
			Function: caller,
			Symbol:   f.Name,
			Err:      err,
		}
	}
	ctx = context.WithValue(ctx, frameKey{}, &frame{quota: c.quota, clock: c.clock, depth: depth})
	result, err := fn(ctx, args)
	if err != nil {
		return ir.Value{}, err
	}
	if result.Type != f.Return {
		return ir.Value{}, &RuntimeError{
			Code:     ErrCodeTypeMismatch,
			Message:  fmt.Sprintf("@%s returned %s, declared %s", f.Name, result.Type, f.Return),
			Function: caller,
			Symbol:   f.Name,
		}
	}
	return result, nil
}

func checkArgs(f *lir.Function, args []ir.Value) *RuntimeError {
	if len(args) != len(f.Params) {
		return &RuntimeError{
			Code:    ErrCodeTypeMismatch,
			Message: fmt.Sprintf("@%s takes %d arguments, got %d", f.Name, len(f.Params), len(args)),
			Symbol:  f.Name,
		}
	}
	for i, a := range args {
		if a.Type != f.Params[i] {
			return &RuntimeError{
				Code:    ErrCodeTypeMismatch,
				Message: fmt.Sprintf("@%s argument %d is %s, want %s", f.Name, i, a.Type, f.Params[i]),
				Symbol:  f.Name,
			}
		}
	}
	return nil
}
