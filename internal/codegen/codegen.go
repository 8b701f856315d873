package codegen

import (
	"fmt"
	"log/slog"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
	"github.com/roach88/scalarjit/internal/registry"
	"github.com/roach88/scalarjit/internal/typer"
)

// ModuleCache stores compiled modules under ir.CompilationKey.
// Get returns (nil, nil) on a miss.
type ModuleCache interface {
	Get(key string) (*lir.Module, error)
	Put(key string, result ir.ValueType, m *lir.Module) error
}

// Generator compiles expressions against one registry.
type Generator struct {
	reg   typer.Registry
	ids   IDGenerator
	cache ModuleCache
}

// Option configures a Generator.
type Option func(*Generator)

// WithIDGenerator sets the source of module IDs. Default: UUIDv7Generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(g *Generator) {
		g.ids = ids
	}
}

// WithCache makes Compile consult and fill c.
func WithCache(c ModuleCache) Option {
	return func(g *Generator) {
		g.cache = c
	}
}

// New returns a Generator over reg.
func New(reg typer.Registry, opts ...Option) *Generator {
	g := &Generator{reg: reg, ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// compilation is the state of one Compile call.
type compilation struct {
	g        *Generator
	reg      typer.Registry
	ty       *typer.Typer
	name     string
	m        *lir.Module
	b        *lir.Builder
	params   []ir.ValueType
	deferred []*registry.Signature
}

// Compile lowers e to a module whose zero-parameter entry function
// lir.EntryName returns the value of e. Bodies of every operator and
// function used by e are linked in; bodies their emitters leave as
// declarations are for the backend to resolve.
func (g *Generator) Compile(e ir.Expr) (*lir.Module, error) {
	return g.compile(lir.EntryName, nil, e)
}

// CompileFunction lowers e to a module defining name(params...). Inside e
// a zero-argument call to "$0", "$1", ... reads that parameter. The result
// is a self-contained body suitable for a LIR artifact. The module cache
// is not consulted.
func (g *Generator) CompileFunction(name string, params []ir.ValueType, e ir.Expr) (*lir.Module, error) {
	if name == "" {
		return nil, &Error{Kind: KindCodegen, Message: "function name is empty"}
	}
	if params == nil {
		params = []ir.ValueType{}
	}
	return g.compile(name, params, e)
}

// compile builds function name. params is nil for the entry function.
func (g *Generator) compile(name string, params []ir.ValueType, e ir.Expr) (*lir.Module, error) {
	reg := g.reg
	if params != nil {
		reg = paramRegistry{Registry: g.reg, params: params}
	}

	ty := typer.New(reg)
	result := ty.TypeOf(e)
	if result == ir.TypeNull {
		err := ty.Check(e)
		if err == nil {
			err = &typer.TypeError{Path: "root", Kind: ir.Kind(e), Message: "expression has no type"}
		}
		return nil, &Error{Kind: KindType, Err: err}
	}

	source, err := ir.ExprHash(e)
	if err != nil {
		return nil, &Error{Kind: KindCodegen, Message: "hash expression", Err: err}
	}

	c := &compilation{g: g, reg: reg, ty: ty, name: name, m: lir.NewModule(name), params: params}
	c.b = lir.NewBuilder(c.m)

	c.b.Begin(name, result, params...)
	v, err := c.gen(e, "root")
	if err != nil {
		return nil, err
	}
	c.b.Ret(v)
	entry, err := c.b.Finish()
	if err != nil {
		return nil, &Error{Kind: KindCodegen, Message: "build entry", Err: err}
	}
	if err := lir.Verify(entry, c.m); err != nil {
		return nil, &Error{Kind: KindCodegen, Message: "entry function is malformed", Err: err}
	}

	// The key covers the signatures the call sites resolved to, so a
	// module built against another registry is never reused.
	var key string
	if params == nil && g.cache != nil {
		key = ir.CompilationKey(source, result, c.signatureIDs())
		if m := g.cached(key); m != nil {
			return m, nil
		}
	}

	if err := c.link(); err != nil {
		return nil, err
	}

	c.m.ID = g.ids.Generate()
	c.m.Source = source
	slog.Info("compiled expression",
		"module", c.m.ID,
		"function", name,
		"type", result,
		"functions", c.m.Len(),
		"deferred", len(c.deferred),
		"unresolved", len(c.m.Declarations()))

	if key != "" {
		if err := g.cache.Put(key, result, c.m); err != nil {
			slog.Warn("module cache write failed", "key", key, "error", err)
		}
	}
	return c.m, nil
}

func (g *Generator) cached(key string) *lir.Module {
	m, err := g.cache.Get(key)
	if err != nil {
		slog.Warn("module cache read failed", "key", key, "error", err)
		return nil
	}
	if m != nil {
		slog.Debug("module cache hit", "key", key, "module", m.ID)
	}
	return m
}

func (c *compilation) gen(e ir.Expr, path string) (lir.Value, error) {
	switch n := e.(type) {
	case *ir.Literal:
		v, err := literalValue(n)
		if err != nil {
			return lir.Value{}, &Error{Kind: KindCodegen, Path: path, Message: err.Error()}
		}
		return c.b.Const(v), nil

	case *ir.BinaryOp:
		lhs, err := c.gen(n.Lhs, path+".lhs")
		if err != nil {
			return lir.Value{}, err
		}
		rhs, err := c.gen(n.Rhs, path+".rhs")
		if err != nil {
			return lir.Value{}, err
		}
		sig, err := c.reg.LookupByOperator(n.Op, c.ty.TypeOf(n), []ir.ValueType{lhs.Type, rhs.Type})
		if err != nil {
			return lir.Value{}, &Error{Kind: KindLookup, Path: path, Err: err}
		}
		return c.call(path, sig, lhs, rhs)

	case *ir.FunctionCall:
		if i, ok := paramIndex(n.Name, len(c.params)); ok && len(n.Args) == 0 {
			return c.b.Param(i), nil
		}
		args := make([]lir.Value, len(n.Args))
		types := make([]ir.ValueType, len(n.Args))
		for i, arg := range n.Args {
			v, err := c.gen(arg, fmt.Sprintf("%s.args[%d]", path, i))
			if err != nil {
				return lir.Value{}, err
			}
			args[i] = v
			types[i] = v.Type
		}
		sig, err := c.reg.Lookup(n.Name, c.ty.TypeOf(n), types)
		if err != nil {
			return lir.Value{}, &Error{Kind: KindLookup, Path: path, Err: err}
		}
		return c.call(path, sig, args...)

	default:
		return lir.Value{}, &Error{Kind: KindCodegen, Path: path, Message: fmt.Sprintf("cannot lower %s node", ir.Kind(e))}
	}
}

// call defers sig's body and emits the call to its symbol. Repeated
// signatures are deduplicated when the worklist is drained. A callee
// symbol equal to the function being compiled would resolve to that
// function itself, so it is rejected.
func (c *compilation) call(path string, sig *registry.Signature, args ...lir.Value) (lir.Value, error) {
	if sig.Symbol() == c.name {
		return lir.Value{}, &Error{
			Kind:    KindCodegen,
			Path:    path,
			Message: fmt.Sprintf("%s links to @%s, the symbol of the function being compiled", sig, c.name),
		}
	}
	c.deferred = append(c.deferred, sig)
	return c.b.Call(sig.Symbol(), sig.ReturnType, args...), nil
}

// signatureIDs returns the IDs of the deferred signatures.
func (c *compilation) signatureIDs() []string {
	ids := make([]string, len(c.deferred))
	for i, sig := range c.deferred {
		ids[i] = sig.ID()
	}
	return ids
}

// link is the second pass: emit each distinct deferred body and link it.
func (c *compilation) link() error {
	seen := make(map[string]bool, len(c.deferred))
	for _, sig := range c.deferred {
		id := sig.ID()
		if seen[id] {
			continue
		}
		seen[id] = true

		body, err := sig.Emitter(sig)
		if err != nil {
			return &Error{Kind: KindCodegen, Message: fmt.Sprintf("emit body of %s", sig), Err: err}
		}
		if body == nil || body.Function(sig.Symbol()) == nil {
			return &Error{Kind: KindCodegen, Message: fmt.Sprintf("emitter of %s did not produce @%s", sig, sig.Symbol())}
		}
		if body.Function(c.name) != nil {
			return &Error{Kind: KindCodegen, Message: fmt.Sprintf("body of %s references @%s, the symbol of the function being compiled", sig, c.name)}
		}
		stats, err := lir.Link(c.m, body)
		if err != nil {
			return &Error{Kind: KindCodegen, Message: fmt.Sprintf("link body of %s", sig), Err: err}
		}
		slog.Debug("callee linked",
			"symbol", sig.Symbol(),
			"signature", sig.String(),
			"added", stats.Added,
			"resolved", stats.Resolved,
			"kept", stats.Kept)
	}
	if err := lir.VerifyModule(c.m); err != nil {
		return &Error{Kind: KindCodegen, Message: "linked module is malformed", Err: err}
	}
	return nil
}

// literalValue returns the constant for n, converted to n's declared type
// when the stored payload differs.
func literalValue(n *ir.Literal) (ir.Value, error) {
	switch n.Type {
	case ir.TypeInt64, ir.TypeUint64, ir.TypeDouble, ir.TypeBoolean:
	case ir.TypeString:
		return ir.Value{}, fmt.Errorf("string literals are not supported")
	default:
		return ir.Value{}, fmt.Errorf("cannot materialize a literal of type %s", n.Type)
	}
	if n.Value.Type == n.Type {
		return n.Value, nil
	}
	v, err := ir.ValueOf(n.Type, n.Value.Interface())
	if err != nil {
		return ir.Value{}, fmt.Errorf("literal of type %s holds a %s value: %w", n.Type, n.Value.Type, err)
	}
	return v, nil
}
